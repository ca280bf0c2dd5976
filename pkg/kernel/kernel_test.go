package kernel

import "testing"

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshAddTriangle(t *testing.T) {
	m := &Mesh{}
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0}, [3]float64{0, 0, 1})
	m.AddTriangle([3]float64{0, 0, 1}, [3]float64{1, 0, 1}, [3]float64{0, 1, 1}, [3]float64{0, 0, 1})
	if m.VertexCount() != 6 || m.TriangleCount() != 2 {
		t.Fatalf("got %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Errorf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	if got := m.Indices[3:]; got[0] != 3 || got[1] != 4 || got[2] != 5 {
		t.Errorf("second triangle indices = %v, want [3 4 5]", got)
	}
}

// --- Box predicates ---

func TestOverlaps(t *testing.T) {
	unit := [2][3]float64{{0, 0, 0}, {1, 1, 1}}
	tests := []struct {
		name     string
		min, max [3]float64
		want     bool
	}{
		{"same box", [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, true},
		{"half inside", [3]float64{0.5, 0.5, 0.5}, [3]float64{1.5, 1.5, 1.5}, true},
		{"touching face", [3]float64{1, 0, 0}, [3]float64{2, 1, 1}, false},
		{"within tolerance", [3]float64{0.995, 0, 0}, [3]float64{2, 1, 1}, false},
		{"apart on z", [3]float64{0, 0, 2}, [3]float64{1, 1, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(unit[0], unit[1], tt.min, tt.max, 0.01); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	outer := [2][3]float64{{-5, -5, 0}, {5, 5, 1}}
	tests := []struct {
		name     string
		min, max [3]float64
		want     bool
	}{
		{"inside", [3]float64{-1, -1, 0}, [3]float64{1, 1, 1}, true},
		{"flush with slack", [3]float64{-5.001, -1, 0}, [3]float64{1, 1, 1}, true},
		{"hanging over", [3]float64{4, 4, 0}, [3]float64{6, 6, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(outer[0], outer[1], tt.min, tt.max, 0.01); got != tt.want {
				t.Errorf("Contains = %v, want %v", got, tt.want)
			}
		})
	}
}
