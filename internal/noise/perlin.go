package noise

import (
	"github.com/aquilax/go-perlin"
)

// Параметры классического шума Перлина
const (
	perlinAlpha  = 2.0 // Сглаживание шума
	perlinBeta   = 2.0 // Частота шума
	perlinOctave = 3   // Количество октав
)

// Perlin - Sampler на основе github.com/aquilax/go-perlin.
// Таблицы перестановок строятся один раз при создании и дальше только читаются.
type Perlin struct {
	seed int64
	p    *perlin.Perlin
}

// NewPerlin создаёт генератор шума Перлина с указанным сидом
func NewPerlin(seed int64) *Perlin {
	return &Perlin{
		seed: seed,
		p:    perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed),
	}
}

// Seed возвращает сид генератора
func (p *Perlin) Seed() int64 {
	return p.seed
}

// Sample возвращает значение шума Перлина (примерно от -1 до 1)
func (p *Perlin) Sample(x, y float64) float64 {
	return p.p.Noise2D(x, y)
}

// Kind задаёт тип шума в конфигурации
type Kind string

const (
	KindGradient Kind = "gradient"
	KindPerlin   Kind = "perlin"
)

// New создаёт Sampler указанного типа. Неизвестный тип даёт градиентный шум.
func New(kind Kind, seed int64) Sampler {
	if kind == KindPerlin {
		return NewPerlin(seed)
	}
	return Gradient{Seed: seed}
}
