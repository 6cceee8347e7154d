package model

// Spec describes one classifier: where its files live and how images and
// outputs are transformed around the network.
type Spec struct {
	Name string

	// Candidates are artifact filenames in preference order.
	Candidates []string
	LabelFile  string
	// DefaultLabels are used when LabelFile does not exist. A spec without
	// defaults fails with ErrLabelFileMissing instead.
	DefaultLabels []string

	Preprocessor Preprocessor
	Activation   Activation

	// Backbone is the feature extractor graph used to rebuild the network
	// from a parameter dictionary; FeatureWidth is its output width.
	Backbone       string
	FeatureWidth   int
	HeadPrefix     string
	FrozenPrefixes []string
}

const (
	PestModel          = "pest"
	CropModel          = "crop"
	MultispectralModel = "multispectral"
)

func PestSpec() Spec {
	return Spec{
		Name: PestModel,
		Candidates: []string{
			"resnet50_0.497.onnx",
			"resnet50_0.497.msgpack",
			"resnet.onnx",
			"resnet.msgpack",
		},
		LabelFile:      "classes.txt",
		Preprocessor:   NewImageNetPreprocessor(),
		Activation:     Softmax,
		Backbone:       "resnet50_backbone.onnx",
		FeatureWidth:   2048,
		HeadPrefix:     "fc",
		FrozenPrefixes: []string{"conv1.", "bn1.", "layer1.", "layer2.", "layer3.", "layer4."},
	}
}

func CropSpec() Spec {
	return Spec{
		Name:          CropModel,
		Candidates:    []string{"crop_model.onnx"},
		LabelFile:     "crop_classes.txt",
		DefaultLabels: []string{"Healthy", "Diseased"},
		Preprocessor:  &ScalePreprocessor{Size: 224},
		Activation:    Sigmoid,
	}
}

func MultispectralSpec() Spec {
	return Spec{
		Name:          MultispectralModel,
		Candidates:    []string{"multispectral_model.onnx"},
		LabelFile:     "multispectral_classes.txt",
		DefaultLabels: []string{"Healthy", "Medium", "Stressed", "Diseased"},
		Preprocessor:  &MultispectralPreprocessor{Size: 224},
		Activation:    Probabilities,
	}
}

func DefaultSpecs() []Spec {
	return []Spec{PestSpec(), CropSpec(), MultispectralSpec()}
}
