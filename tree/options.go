package tree

// Option is a function that configures DecisionTreeClassifier
type Option func(*DecisionTreeClassifier)

// WithCriterion sets the split quality measure ("gini" or "entropy")
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.criterion = criterion
	}
}

// WithMaxDepth sets the maximum tree depth (0 = unlimited)
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum samples required to split a node
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum samples required in a leaf
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the number of features considered per split
// (0 = all features)
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.maxFeatures = n
	}
}

// WithClassWeight sets the class weighting mode ("" = uniform, "balanced" =
// weights inversely proportional to class frequencies)
func WithClassWeight(mode string) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.classWeight = mode
	}
}

// WithRandomState seeds the feature subsampling used with WithMaxFeatures
func WithRandomState(seed int) Option {
	return func(dt *DecisionTreeClassifier) {
		dt.randomState = seed
	}
}
