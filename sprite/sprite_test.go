package sprite

import "testing"

func TestRectangleMesh(t *testing.T) {
	m := RectangleMesh(4, 2)
	if len(m.Vertices) != 4 {
		t.Fatalf("got %d vertices, want 4", len(m.Vertices))
	}
	wantPos := [][2]float32{{0, 0}, {0, 2}, {4, 2}, {4, 0}}
	wantUV := [][2]float32{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	for i, v := range m.Vertices {
		if v.Position != wantPos[i] {
			t.Errorf("vertex %d position = %v, want %v", i, v.Position, wantPos[i])
		}
		if v.TexCoords != wantUV[i] {
			t.Errorf("vertex %d tex coords = %v, want %v", i, v.TexCoords, wantUV[i])
		}
	}
	wantIndices := []uint16{0, 1, 3, 3, 1, 2}
	for i, idx := range m.Indices {
		if idx != wantIndices[i] {
			t.Errorf("index %d = %d, want %d", i, idx, wantIndices[i])
		}
	}
}

func TestQuadMeshNormalizesCorners(t *testing.T) {
	a := Vertex{Position: [2]float32{3, 5}, TexCoords: [2]float32{1, 1}}
	b := Vertex{Position: [2]float32{1, 2}, TexCoords: [2]float32{0, 0}}

	m1 := QuadMesh(a, b)
	m2 := QuadMesh(b, a)
	for i := range m1.Vertices {
		if m1.Vertices[i] != m2.Vertices[i] {
			t.Errorf("vertex %d differs depending on corner order: %v vs %v", i, m1.Vertices[i], m2.Vertices[i])
		}
	}

	// Top-left carries the min position with its matching texture coordinate.
	tl := m1.Vertices[0]
	if tl.Position != [2]float32{1, 2} || tl.TexCoords != [2]float32{0, 0} {
		t.Errorf("top-left vertex = %+v", tl)
	}
	br := m1.Vertices[2]
	if br.Position != [2]float32{3, 5} || br.TexCoords != [2]float32{1, 1} {
		t.Errorf("bottom-right vertex = %+v", br)
	}
}

func TestUnitQuadMesh(t *testing.T) {
	m := UnitQuadMesh()
	if len(m.Vertices) != 4 || len(m.Indices) != 6 {
		t.Fatalf("got %d vertices and %d indices, want 4 and 6", len(m.Vertices), len(m.Indices))
	}
	for _, v := range m.Vertices {
		for _, c := range v.Position {
			if c != 0 && c != 1 {
				t.Errorf("unit quad position component %v outside {0, 1}", c)
			}
		}
	}
}
