package mesh

import "github.com/annel0/blockworld/internal/world/block"

// accumulator собирает вершины и индексы одной части меша
type accumulator struct {
	vertices []float32
	indices  []uint32
	next     uint32 // индекс следующей вершины
}

func (a *accumulator) addFace(px, py, pz float32, def *faceDef, uv *[8]float32) {
	for c := 0; c < 4; c++ {
		corner := def.corners[c]
		a.vertices = append(a.vertices,
			px+corner[0], py+corner[1], pz+corner[2],
			uv[c*2], uv[c*2+1],
			def.normal[0], def.normal[1], def.normal[2],
		)
	}

	a.indices = append(a.indices,
		a.next, a.next+1, a.next+2,
		a.next, a.next+2, a.next+3,
	)
	a.next += 4
}

func (a *accumulator) mesh() *Mesh {
	return &Mesh{Vertices: a.vertices, Indices: a.indices}
}

// Build обходит все непустые блоки источника и строит пару мешей.
// Позиции вершин задаются в мировых координатах.
func Build(src Source, uv UVResolver) *Pair {
	if uv == nil {
		uv = DefaultUV
	}

	var (
		opaque      accumulator
		transparent accumulator
		faceUV      [8]float32
	)

	ox, oz := src.Origin()
	width, height := src.Width(), src.Height()

	for x := 0; x < width; x++ {
		for z := 0; z < width; z++ {
			for y := 0; y < height; y++ {
				id := src.Block(x, y, z)
				if id == block.Air || !block.IsValid(id) {
					continue
				}
				isTransparent := block.IsTransparent(id)

				px := float32(ox + x)
				py := float32(y)
				pz := float32(oz + z)

				for f := Face(0); f < FaceCount; f++ {
					def := &faces[f]
					neighbor := src.Block(x+def.offset[0], y+def.offset[1], z+def.offset[2])
					if !Visible(id, neighbor) {
						continue
					}

					uv(id, f, &faceUV)
					if isTransparent {
						transparent.addFace(px, py, pz, def, &faceUV)
					} else {
						opaque.addFace(px, py, pz, def, &faceUV)
					}
				}
			}
		}
	}

	return &Pair{Opaque: opaque.mesh(), Transparent: transparent.mesh()}
}
