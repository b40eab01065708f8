package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrModelNotTrained 模型尚未训练，无法推理
var ErrModelNotTrained = errors.New("model has not been trained")

// ErrNoTrainingData 训练输入为空
var ErrNoTrainingData = errors.New("no training data")

// Hyperparams 随机森林超参数
type Hyperparams struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
}

// Classifier 分类随机森林（基尼 CART + 自助采样，类别按频率倒数加权）
type Classifier struct {
	Params      Hyperparams
	NumClasses  int
	NumFeatures int
	Trees       []*TreeNode
}

// NewClassifier 构造未训练的分类森林
func NewClassifier(params Hyperparams, numClasses int) *Classifier {
	return &Classifier{Params: params, NumClasses: numClasses}
}

// Trained 模型是否已拟合（未拟合的模型走规则回退路径）
func (c *Classifier) Trained() bool {
	return len(c.Trees) > 0
}

// Fit 在标准化后的特征矩阵上训练
func (c *Classifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(y) != len(X) {
		return ErrNoTrainingData
	}
	for _, label := range y {
		if label < 0 || label >= c.NumClasses {
			return fmt.Errorf("label %d out of range [0,%d)", label, c.NumClasses)
		}
	}

	c.NumFeatures = len(X[0])
	weights := balancedClassWeights(y, c.NumClasses)
	maxFeatures := int(math.Sqrt(float64(c.NumFeatures)))

	trees := make([]*TreeNode, c.Params.NumTrees)
	for t := range trees {
		rng := rand.New(rand.NewSource(c.Params.Seed + int64(t)))
		p := &treeParams{
			maxDepth:        c.Params.MaxDepth,
			minSamplesSplit: c.Params.MinSamplesSplit,
			minSamplesLeaf:  c.Params.MinSamplesLeaf,
			maxFeatures:     maxFeatures,
			numClasses:      c.NumClasses,
			classWeights:    weights,
			rng:             rng,
		}
		idx := sampleWithReplacement(len(X), rng)
		trees[t] = buildTree(X, y, nil, idx, 0, p)
	}
	c.Trees = trees
	return nil
}

// PredictClass 返回多数类与各类别平均概率
func (c *Classifier) PredictClass(x []float64) (int, []float64, error) {
	if !c.Trained() {
		return 0, nil, ErrModelNotTrained
	}
	if len(x) != c.NumFeatures {
		return 0, nil, fmt.Errorf("feature width mismatch: trained on %d, got %d", c.NumFeatures, len(x))
	}
	probs := make([]float64, c.NumClasses)
	for _, tree := range c.Trees {
		leaf := predictNode(tree, x)
		for i, p := range leafProbabilities(leaf) {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(c.Trees))
	}
	return argmax(probs), probs, nil
}

// Score 在给定数据集上的分类准确率
func (c *Classifier) Score(X [][]float64, y []int) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoTrainingData
	}
	correct := 0
	for i, row := range X {
		pred, _, err := c.PredictClass(row)
		if err != nil {
			return 0, err
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}

// Regressor 回归随机森林（方差 CART + 自助采样）
type Regressor struct {
	Params      Hyperparams
	NumFeatures int
	Trees       []*TreeNode
}

// NewRegressor 构造未训练的回归森林
func NewRegressor(params Hyperparams) *Regressor {
	return &Regressor{Params: params}
}

// Trained 模型是否已拟合
func (r *Regressor) Trained() bool {
	return len(r.Trees) > 0
}

// Fit 在标准化后的特征矩阵上训练
func (r *Regressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(y) != len(X) {
		return ErrNoTrainingData
	}

	r.NumFeatures = len(X[0])
	trees := make([]*TreeNode, r.Params.NumTrees)
	for t := range trees {
		rng := rand.New(rand.NewSource(r.Params.Seed + int64(t)))
		p := &treeParams{
			maxDepth:        r.Params.MaxDepth,
			minSamplesSplit: r.Params.MinSamplesSplit,
			minSamplesLeaf:  r.Params.MinSamplesLeaf,
			rng:             rng,
		}
		idx := sampleWithReplacement(len(X), rng)
		trees[t] = buildTree(X, nil, y, idx, 0, p)
	}
	r.Trees = trees
	return nil
}

// PredictValue 返回各树叶节点均值的平均
func (r *Regressor) PredictValue(x []float64) (float64, error) {
	if !r.Trained() {
		return 0, ErrModelNotTrained
	}
	if len(x) != r.NumFeatures {
		return 0, fmt.Errorf("feature width mismatch: trained on %d, got %d", r.NumFeatures, len(x))
	}
	sum := 0.0
	for _, tree := range r.Trees {
		sum += predictNode(tree, x).Value
	}
	return sum / float64(len(r.Trees)), nil
}

// Score 在给定数据集上的 R² 决定系数
func (r *Regressor) Score(X [][]float64, y []float64) (float64, error) {
	if len(X) == 0 {
		return 0, ErrNoTrainingData
	}
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(len(y))

	var ssRes, ssTot float64
	for i, row := range X {
		pred, err := r.PredictValue(row)
		if err != nil {
			return 0, err
		}
		d := y[i] - pred
		ssRes += d * d
		t := y[i] - meanY
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
