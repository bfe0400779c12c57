package mesh

import "github.com/annel0/blockworld/internal/world/block"

// Face задаёт направление грани блока
type Face uint8

const (
	East  Face = iota // +X
	West              // -X
	Up                // +Y
	Down              // -Y
	South             // +Z
	North             // -Z

	FaceCount // всегда последний: количество граней
)

// faceDef описывает грань: нормаль, смещение к соседу и четыре угла квада.
// Углы перечислены против часовой стрелки при взгляде снаружи блока.
type faceDef struct {
	normal  [3]float32
	offset  [3]int
	corners [4][3]float32
}

var faces = [FaceCount]faceDef{
	East: {
		normal:  [3]float32{1, 0, 0},
		offset:  [3]int{1, 0, 0},
		corners: [4][3]float32{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	},
	West: {
		normal:  [3]float32{-1, 0, 0},
		offset:  [3]int{-1, 0, 0},
		corners: [4][3]float32{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	},
	Up: {
		normal:  [3]float32{0, 1, 0},
		offset:  [3]int{0, 1, 0},
		corners: [4][3]float32{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	},
	Down: {
		normal:  [3]float32{0, -1, 0},
		offset:  [3]int{0, -1, 0},
		corners: [4][3]float32{{0, 0, 1}, {0, 0, 0}, {1, 0, 0}, {1, 0, 1}},
	},
	South: {
		normal:  [3]float32{0, 0, 1},
		offset:  [3]int{0, 0, 1},
		corners: [4][3]float32{{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	},
	North: {
		normal:  [3]float32{0, 0, -1},
		offset:  [3]int{0, 0, -1},
		corners: [4][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	},
}

// Normal возвращает нормаль грани
func (f Face) Normal() [3]float32 {
	return faces[f].normal
}

// Offset возвращает смещение к соседнему блоку за гранью
func (f Face) Offset() (dx, dy, dz int) {
	o := faces[f].offset
	return o[0], o[1], o[2]
}

// String возвращает название грани
func (f Face) String() string {
	switch f {
	case East:
		return "east"
	case West:
		return "west"
	case Up:
		return "up"
	case Down:
		return "down"
	case South:
		return "south"
	case North:
		return "north"
	default:
		return "unknown"
	}
}

// UVResolver записывает в out четыре пары UV (по одной на угол квада)
// для указанного типа блока и грани. Предоставляется слоем ассетов.
type UVResolver func(id block.ID, face Face, out *[8]float32)

// DefaultUV растягивает всю текстуру [0,1]x[0,1] на грань
func DefaultUV(_ block.ID, _ Face, out *[8]float32) {
	*out = [8]float32{
		0, 1,
		0, 0,
		1, 0,
		1, 1,
	}
}
