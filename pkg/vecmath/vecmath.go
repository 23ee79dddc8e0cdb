// Package vecmath 提供推荐链路使用的向量运算。
package vecmath

import "math"

// Dot 计算内积，维度不一致时返回 0。
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Norm 计算 L2 范数。
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize 返回 L2 归一化后的新向量；零向量原样复制返回。
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	n := Norm(v)
	if n == 0 {
		return out
	}
	for i := range out {
		out[i] /= n
	}
	return out
}

// Cosine 计算余弦相似度，任一侧为零向量时返回 0。
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Euclidean 计算欧氏距离，维度不一致时返回 +Inf。
func Euclidean(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// AXPY 计算 dst += alpha * x（原地）。
func AXPY(dst []float64, alpha float64, x []float64) {
	for i := range dst {
		if i < len(x) {
			dst[i] += alpha * x[i]
		}
	}
}
