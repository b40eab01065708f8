package ml

// 各模型的默认超参数
// 工件缺失或损坏时用这些常量构造全新模型，训练管线也以此为准
var (
	// FallHyperparams 跌倒二分类森林
	FallHyperparams = Hyperparams{
		NumTrees:        100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}

	// SleepQualityHyperparams 睡眠质量回归森林
	SleepQualityHyperparams = Hyperparams{
		NumTrees:        100,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}

	// SleepStageHyperparams 睡眠阶段四分类森林
	SleepStageHyperparams = Hyperparams{
		NumTrees:        100,
		MaxDepth:        12,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
)

// 分类类别数
const (
	// FallNumClasses 跌倒二分类（0=非跌倒, 1=跌倒）
	FallNumClasses = 2
	// SleepStageNumClasses 睡眠阶段四分类（0=深睡, 1=浅睡, 2=清醒, 3=无）
	SleepStageNumClasses = 4
)
