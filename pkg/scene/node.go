// Package scene is the headless stand-in for the rendering layer's scene
// graph. Every element gets one node carrying a semantic role, a local
// transform relative to its parent node, and optional pickable geometry.
// Nodes are raycast against while dragging and read back by the frontend.
package scene

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
)

// Role is the semantic tag of a node.
type Role string

const (
	RoleRoot           Role = "Root"
	RoleGround         Role = "Ground"
	RoleFoundation     Role = "Foundation"
	RoleWall           Role = "Wall"
	RoleRoof           Role = "Roof"
	RoleRoofSegment    Role = "Roof Segment"
	RoleCuboid         Role = "Cuboid"
	RoleSolarPanel     Role = "Solar Panel"
	RoleBatteryStorage Role = "Battery Storage"
	RoleRuler          Role = "Ruler"
	RoleProtractor     Role = "Protractor"
	RoleWindow         Role = "Window"
	RoleDoor           Role = "Door"
)

// RoleOf returns the node role used for elements of kind k.
func RoleOf(k element.Kind) Role {
	switch k {
	case element.KindFoundation:
		return RoleFoundation
	case element.KindWall:
		return RoleWall
	case element.KindRoof:
		return RoleRoof
	case element.KindCuboid:
		return RoleCuboid
	case element.KindSolarPanel:
		return RoleSolarPanel
	case element.KindBatteryStorage:
		return RoleBatteryStorage
	case element.KindRuler:
		return RoleRuler
	case element.KindProtractor:
		return RoleProtractor
	case element.KindWindow:
		return RoleWindow
	case element.KindDoor:
		return RoleDoor
	default:
		return RoleRoot
	}
}

// Metadata is role-specific data attached to a node.
type Metadata interface {
	metadata()
}

// Node is one object in the scene. Position and Rotation are relative to
// Parent.
type Node struct {
	Name      string
	Role      Role
	ElementID element.ID
	Position  v3.Vec
	Rotation  v3.Vec
	Geometry  Geometry
	Visible   bool
	UserData  Metadata

	Parent   *Node
	Children []*Node
}

// NewNode returns a visible, detached node.
func NewNode(name string, role Role) *Node {
	return &Node{Name: name, Role: role, Visible: true}
}

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.Parent == n {
		return
	}
	child.Detach()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Detach removes n from its parent.
func (n *Node) Detach() {
	p := n.Parent
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == n {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// LocalFrame returns the node's transform relative to its parent.
func (n *Node) LocalFrame() geom.Frame {
	return geom.NewFrame(n.Position, n.Rotation)
}

// WorldFrame returns the node's transform in world space.
func (n *Node) WorldFrame() geom.Frame {
	f := n.LocalFrame()
	for p := n.Parent; p != nil; p = p.Parent {
		f = p.LocalFrame().Mul(f)
	}
	return f
}

// Walk visits n and its descendants depth first until fn returns false
// for a node, which skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// IsDescendantOf reports whether n is a or lies below it.
func (n *Node) IsDescendantOf(a *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// FindAncestorByRole walks from node up to the root and returns the first
// node whose role is one of roles. The node itself is checked first. It
// returns nil when no such ancestor exists.
func FindAncestorByRole(node *Node, roles ...Role) *Node {
	for p := node; p != nil; p = p.Parent {
		for _, r := range roles {
			if p.Role == r {
				return p
			}
		}
	}
	return nil
}

// ExtractRoleMetadata returns the first metadata found walking up from
// node, or nil.
func ExtractRoleMetadata(node *Node) Metadata {
	for p := node; p != nil; p = p.Parent {
		if p.UserData != nil {
			return p.UserData
		}
	}
	return nil
}
