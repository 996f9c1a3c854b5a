// Package log defines standard attribute keys for the rental-type pipeline.
//
// The keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") so that log lines from training, evaluation and inference
// can be filtered and aggregated with the same queries.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the trainer or classifier kind.
	// Examples: "GradientBoostedTrees", "DecisionForest", "RegularizedLogisticRegression"
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific trained model instance (UUID string).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "dataset", "preprocessing", "trainer", "store"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of records or rows.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the encoded feature width.
	FeaturesKey = "data.features"

	// SourceKey names the data source (file path or "synthetic").
	SourceKey = "data.source"

	// TrainSizeKey and TestSizeKey record the partition sizes of a split.
	TrainSizeKey = "data.train_size"
	TestSizeKey  = "data.test_size"

	// PositiveRateKey records the share of long-term (label 1) records.
	PositiveRateKey = "data.positive_rate"

	// UnknownCategoriesKey counts categorical codes seen at inference time
	// that were absent at fit time.
	UnknownCategoriesKey = "data.unknown_categories"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records the fraction of correct predictions.
	AccuracyKey = "metrics.accuracy"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// F1Key records the F1 score for the positive class.
	F1Key = "metrics.f1"

	// LossKey records log-loss during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the current boosting round or solver iteration.
	IterationKey = "training.iteration"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ConfidenceKey records the predicted probability of the long-term class.
	ConfidenceKey = "preds.confidence"

	// ThresholdKey records the decision threshold.
	ThresholdKey = "preds.threshold"
)

// Error and Warning Context
const (
	// ErrorTypeKey は error 属性の具体的な型名（"*errors.DataError" など）。
	// JSON 出力では未指定なら handler が補う
	ErrorTypeKey = "error.type"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the shrinkage applied to boosting updates.
	LearningRateKey = "hyperparams.learning_rate"

	// RegularizationKey records the L2 strength.
	RegularizationKey = "hyperparams.regularization"

	// RandomSeedKey records the seed used for the split or bagging.
	RandomSeedKey = "config.random_seed"

	// ArtifactPathKey records the path of a saved or loaded model artifact.
	ArtifactPathKey = "store.path"

	// FormatVersionKey records the artifact format version.
	FormatVersionKey = "store.format_version"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationEncode   = "encode"
	OperationSplit    = "split"
	OperationEvaluate = "evaluate"
	OperationSelect   = "select"
	OperationSave     = "save"
	OperationLoad     = "load"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
