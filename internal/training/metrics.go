// Package training 离线训练管线：拉取/合成带标签数据、回放提取特征、
// 训练评估并持久化模型工件
package training

import "math"

// BinaryReport 二分类评估指标（正类为 1）
type BinaryReport struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	Confusion [2][2]int // [实际][预测]
}

// EvaluateBinary 计算二分类指标
func EvaluateBinary(yTrue, yPred []int) BinaryReport {
	var report BinaryReport
	if len(yTrue) == 0 {
		return report
	}

	correct := 0
	for i := range yTrue {
		report.Confusion[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	report.Accuracy = float64(correct) / float64(len(yTrue))

	tp := float64(report.Confusion[1][1])
	fp := float64(report.Confusion[0][1])
	fn := float64(report.Confusion[1][0])
	if tp+fp > 0 {
		report.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		report.Recall = tp / (tp + fn)
	}
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	return report
}

// MulticlassReport 多分类评估指标
type MulticlassReport struct {
	Accuracy         float64
	PerClassAccuracy []float64
	Confusion        [][]int
}

// EvaluateMulticlass 计算多分类整体与逐类准确率
func EvaluateMulticlass(yTrue, yPred []int, numClasses int) MulticlassReport {
	report := MulticlassReport{
		PerClassAccuracy: make([]float64, numClasses),
		Confusion:        make([][]int, numClasses),
	}
	for i := range report.Confusion {
		report.Confusion[i] = make([]int, numClasses)
	}
	if len(yTrue) == 0 {
		return report
	}

	correct := 0
	classTotal := make([]int, numClasses)
	for i := range yTrue {
		report.Confusion[yTrue[i]][yPred[i]]++
		classTotal[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	report.Accuracy = float64(correct) / float64(len(yTrue))
	for c := 0; c < numClasses; c++ {
		if classTotal[c] > 0 {
			report.PerClassAccuracy[c] = float64(report.Confusion[c][c]) / float64(classTotal[c])
		}
	}
	return report
}

// RegressionReport 回归评估指标
type RegressionReport struct {
	MAE  float64
	RMSE float64
	R2   float64
}

// EvaluateRegression 计算 MAE、RMSE 与 R²
func EvaluateRegression(yTrue, yPred []float64) RegressionReport {
	var report RegressionReport
	n := len(yTrue)
	if n == 0 {
		return report
	}

	meanY := 0.0
	for _, v := range yTrue {
		meanY += v
	}
	meanY /= float64(n)

	var sumAbs, sumSq, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sumAbs += math.Abs(d)
		sumSq += d * d
		t := yTrue[i] - meanY
		ssTot += t * t
	}
	report.MAE = sumAbs / float64(n)
	report.RMSE = math.Sqrt(sumSq / float64(n))
	if ssTot > 0 {
		report.R2 = 1 - sumSq/ssTot
	}
	return report
}
