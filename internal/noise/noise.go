// Package noise реализует детерминированный 2D когерентный шум для генерации ландшафта.
package noise

import "math"

// Sampler возвращает значение шума в точке. Реализации детерминированы для своего сида
// и безопасны для параллельного использования.
type Sampler interface {
	Sample(x, y float64) float64
}

// Коэффициенты перекоса симплексной сетки
const (
	skew2   = 0.36602540378443865 // (sqrt(3)-1)/2
	unskew2 = 0.21132486540518713 // (3-sqrt(3))/6
)

// gradients - неизменяемая таблица градиентов в углах решётки
var gradients = [12][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {1, 0}, {-1, 0},
	{0, 1}, {0, -1}, {0, 1}, {0, -1},
}

// Noise возвращает значение симплексного шума в диапазоне примерно [-1, 1].
// Функция чистая: одинаковые seed, x, y дают побитово одинаковый результат.
// Явные преобразования float64(...) запрещают компилятору сливать умножение и сложение (FMA),
// иначе результат отличался бы между архитектурами.
func Noise(seed int64, x, y float64) float64 {
	s := float64(x+y) * skew2
	i := math.Floor(x + s)
	j := math.Floor(y + s)

	t := float64(i+j) * unskew2
	x0 := x - float64(i-t)
	y0 := y - float64(j-t)

	// Выбор треугольника симплекса
	var i1, j1 int64
	if x0 > y0 {
		i1 = 1
	} else {
		j1 = 1
	}

	x1 := x0 - float64(i1) + unskew2
	y1 := y0 - float64(j1) + unskew2
	x2 := x0 - 1 + 2*unskew2
	y2 := y0 - 1 + 2*unskew2

	ii, jj := int64(i), int64(j)
	n0 := corner(seed, ii, jj, x0, y0)
	n1 := corner(seed, ii+i1, jj+j1, x1, y1)
	n2 := corner(seed, ii+1, jj+1, x2, y2)

	return 70 * (n0 + n1 + n2)
}

// corner вычисляет вклад одного угла симплекса
func corner(seed, i, j int64, x, y float64) float64 {
	t := 0.5 - float64(x*x) - float64(y*y)
	if t < 0 {
		return 0
	}
	g := gradients[hash(seed, i, j)%uint64(len(gradients))]
	t = float64(t * t)
	return float64(t*t) * (float64(g[0]*x) + float64(g[1]*y))
}

// hash - целочисленное перемешивание в стиле SplitMix64, стабильное между запусками
func hash(seed, i, j int64) uint64 {
	v := uint64(i)*0x9E3779B97F4A7C15 + uint64(j)*0xC2B2AE3D27D4EB4F + uint64(seed)
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// Gradient - Sampler на основе Noise с фиксированным сидом
type Gradient struct {
	Seed int64
}

// Sample реализует Sampler
func (g Gradient) Sample(x, y float64) float64 {
	return Noise(g.Seed, x, y)
}
