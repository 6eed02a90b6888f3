package dataset

import (
	"sort"

	"github.com/pkg/errors"
)

// LabelEncoder maps categorical activity labels to integer codes in [0, C-1].
// The mapping is a bijection fixed once from the sorted unique labels of the
// full dataset, so every label is known before any split is made.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder fixes a label encoding over the sorted unique labels.
func NewLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var classes []string
	for _, label := range labels {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		index[class] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Encode maps a label to its integer code.
func (e *LabelEncoder) Encode(label string) (int, error) {
	code, ok := e.index[label]
	if !ok {
		return 0, errors.Errorf("unknown activity label %s", label)
	}
	return code, nil
}

// EncodeAll maps a column of labels to integer codes.
func (e *LabelEncoder) EncodeAll(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, label := range labels {
		code, err := e.Encode(label)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// Decode maps an integer code back to its label.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", errors.Errorf("activity code %d out of range", code)
	}
	return e.classes[code], nil
}

// Classes is the ordered set of labels the encoder was fixed over.
func (e *LabelEncoder) Classes() []string {
	return e.classes
}
