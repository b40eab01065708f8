package ml

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode CART 决策树节点（导出字段供 gob 序列化）
// 叶节点：分类树携带加权类别计数，回归树携带均值
type TreeNode struct {
	Leaf        bool
	Feature     int
	Threshold   float64
	Left        *TreeNode
	Right       *TreeNode
	ClassCounts []float64
	Value       float64
}

// treeParams 单棵树的生长参数
type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 每次分裂考察的特征数，0 表示全部
	numClasses      int // 分类树的类别数，回归树为 0
	classWeights    []float64
	rng             *rand.Rand
}

// buildTree 递归生长一棵 CART 树
// idx 是当前节点覆盖的样本下标集合
func buildTree(X [][]float64, yClass []int, yValue []float64, idx []int, depth int, p *treeParams) *TreeNode {
	if len(idx) < p.minSamplesSplit || depth >= p.maxDepth || isPure(yClass, yValue, idx, p) {
		return makeLeaf(yClass, yValue, idx, p)
	}

	feature, threshold, ok := bestSplit(X, yClass, yValue, idx, p)
	if !ok {
		return makeLeaf(yClass, yValue, idx, p)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return makeLeaf(yClass, yValue, idx, p)
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildTree(X, yClass, yValue, left, depth+1, p),
		Right:     buildTree(X, yClass, yValue, right, depth+1, p),
	}
}

func isPure(yClass []int, yValue []float64, idx []int, p *treeParams) bool {
	if len(idx) <= 1 {
		return true
	}
	if p.numClasses > 0 {
		first := yClass[idx[0]]
		for _, i := range idx[1:] {
			if yClass[i] != first {
				return false
			}
		}
		return true
	}
	first := yValue[idx[0]]
	for _, i := range idx[1:] {
		if yValue[i] != first {
			return false
		}
	}
	return true
}

func makeLeaf(yClass []int, yValue []float64, idx []int, p *treeParams) *TreeNode {
	node := &TreeNode{Leaf: true}
	if p.numClasses > 0 {
		node.ClassCounts = make([]float64, p.numClasses)
		for _, i := range idx {
			node.ClassCounts[yClass[i]] += p.classWeights[yClass[i]]
		}
	} else {
		sum := 0.0
		for _, i := range idx {
			sum += yValue[i]
		}
		if len(idx) > 0 {
			node.Value = sum / float64(len(idx))
		}
	}
	return node
}

// bestSplit 在随机特征子集上寻找不纯度下降最大的分裂点
// 候选阈值取排序后相邻取值的中点
// 子集内无有效分裂时继续考察剩余特征，避免树在常量特征上退化为叶节点
func bestSplit(X [][]float64, yClass []int, yValue []float64, idx []int, p *treeParams) (int, float64, bool) {
	numFeatures := len(X[0])
	order := p.rng.Perm(numFeatures)
	limit := p.maxFeatures
	if limit <= 0 || limit > numFeatures {
		limit = numFeatures
	}

	parentImp := impurity(yClass, yValue, idx, p)
	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, 0, len(idx))
	for pos, f := range order {
		if pos >= limit && bestFeature >= 0 {
			break
		}
		values = values[:0]
		for _, i := range idx {
			values = append(values, X[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			var left, right []int
			for _, i := range idx {
				if X[i][f] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
				continue
			}

			nl, nr := float64(len(left)), float64(len(right))
			n := nl + nr
			gain := parentImp -
				nl/n*impurity(yClass, yValue, left, p) -
				nr/n*impurity(yClass, yValue, right, p)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

// impurity 分类树为加权基尼不纯度，回归树为方差
func impurity(yClass []int, yValue []float64, idx []int, p *treeParams) float64 {
	if len(idx) == 0 {
		return 0
	}
	if p.numClasses > 0 {
		counts := make([]float64, p.numClasses)
		total := 0.0
		for _, i := range idx {
			w := p.classWeights[yClass[i]]
			counts[yClass[i]] += w
			total += w
		}
		gini := 1.0
		for _, c := range counts {
			f := c / total
			gini -= f * f
		}
		return gini
	}
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		v := yValue[i]
		sum += v
		sumSq += v * v
	}
	n := float64(len(idx))
	m := sum / n
	return sumSq/n - m*m
}

// predictNode 沿树下行到叶节点
func predictNode(node *TreeNode, x []float64) *TreeNode {
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// leafProbabilities 叶节点的归一化类别分布
func leafProbabilities(node *TreeNode) []float64 {
	total := 0.0
	for _, c := range node.ClassCounts {
		total += c
	}
	probs := make([]float64, len(node.ClassCounts))
	if total == 0 {
		return probs
	}
	for i, c := range node.ClassCounts {
		probs[i] = c / total
	}
	return probs
}

// sampleWithReplacement 自助采样 n 个样本下标
func sampleWithReplacement(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// balancedClassWeights 按类别频率倒数加权：w_c = n / (k * n_c)
func balancedClassWeights(y []int, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, c := range y {
		counts[c]++
	}
	weights := make([]float64, numClasses)
	n := float64(len(y))
	k := float64(numClasses)
	for c, cnt := range counts {
		if cnt > 0 {
			weights[c] = n / (k * cnt)
		} else {
			weights[c] = 0
		}
	}
	return weights
}

// argmax 返回最大值下标
func argmax(xs []float64) int {
	best, bestVal := 0, math.Inf(-1)
	for i, x := range xs {
		if x > bestVal {
			best = i
			bestVal = x
		}
	}
	return best
}
