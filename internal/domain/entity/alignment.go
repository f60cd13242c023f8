package entity

// TransformKind вид геометрического преобразования
type TransformKind string

const (
	TransformAffine     TransformKind = "affine"
	TransformHomography TransformKind = "homography"
)

// AlignmentOutcome какой путь регистрации дал результат
type AlignmentOutcome int

const (
	AlignmentFailed   AlignmentOutcome = iota // ни ECC, ни фичи не сошлись
	AlignedAffine                             // ECC по границам
	AlignedHomography                         // ORB + RANSAC
)

// Matrix матрица 3x3, аффинное преобразование хранится с последней строкой 0 0 1.
type Matrix [3][3]float64

// Identity возвращает единичную матрицу.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply переводит точку (x, y) с учётом перспективного деления.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	u := m[0][0]*x + m[0][1]*y + m[0][2]
	v := m[1][0]*x + m[1][1]*y + m[1][2]
	w := m[2][0]*x + m[2][1]*y + m[2][2]
	if w == 0 {
		return u, v
	}
	return u / w, v / w
}

// Alignment результат регистрации снимка обслуживания на кадр эталона.
// Matrix всегда отображает координаты эталона в координаты снимка обслуживания.
type Alignment struct {
	Outcome AlignmentOutcome
	Matrix  Matrix
	Score   float64 // корреляция ECC, только для AlignedAffine
}

// NewAffineAlignment создаёт результат сошедшегося ECC.
func NewAffineAlignment(m [2][3]float64, score float64) Alignment {
	return Alignment{
		Outcome: AlignedAffine,
		Matrix:  Matrix{m[0], m[1], {0, 0, 1}},
		Score:   score,
	}
}

// NewHomographyAlignment создаёт результат запасного пути по ключевым точкам.
func NewHomographyAlignment(h Matrix) Alignment {
	return Alignment{Outcome: AlignedHomography, Matrix: h}
}

// FailedAlignment единичное преобразование без совмещения.
func FailedAlignment() Alignment {
	return Alignment{Outcome: AlignmentFailed, Matrix: Identity()}
}

// Kind возвращает тип преобразования для отчёта.
func (a Alignment) Kind() TransformKind {
	if a.Outcome == AlignedHomography {
		return TransformHomography
	}
	return TransformAffine
}

// Success сообщает, удалось ли совмещение.
func (a Alignment) Success() bool {
	return a.Outcome != AlignmentFailed
}

// QualityScore оценка качества, для гомографии и отказа равна 0.
func (a Alignment) QualityScore() float64 {
	if a.Outcome != AlignedAffine {
		return 0
	}
	return a.Score
}
