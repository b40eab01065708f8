package training

import "math/rand"

// splitIndices 随机划分训练/测试下标
func splitIndices(n int, testSize float64, rng *rand.Rand) (train, test []int) {
	perm := rng.Perm(n)
	testCount := int(float64(n) * testSize)
	if testCount < 1 && n > 1 {
		testCount = 1
	}
	return perm[testCount:], perm[:testCount]
}

// stratifiedSplit 分层划分：每个类别按 testSize 比例进入测试集
// 类别样本过少时保证训练集至少保留一个
func stratifiedSplit(y []int, testSize float64, rng *rand.Rand) (train, test []int) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})
		testCount := int(float64(len(idx)) * testSize)
		if testCount >= len(idx) {
			testCount = len(idx) - 1
		}
		test = append(test, idx[:testCount]...)
		train = append(train, idx[testCount:]...)
	}
	return train, test
}

// selectRows 取出下标对应的特征行
func selectRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

// selectInts 取出下标对应的整型标签
func selectInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// selectFloats 取出下标对应的浮点标签
func selectFloats(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
