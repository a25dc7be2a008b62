package features

import (
	"math"
	"reflect"
	"testing"
)

func fittedPipeline() *Pipeline {
	p := NewPipeline(100)
	p.Fit([]Row{
		{Text: "nivolumab metastatic lung cancer response rate", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"},
		{Text: "pembrolizumab melanoma survival", OrgClass: "NIH", PrimaryPurpose: "TREATMENT"},
		{Text: "capecitabine colorectal cancer progression", OrgClass: "OTHER", PrimaryPurpose: "PREVENTION"},
	})
	return p
}

func TestTokenize(t *testing.T) {
	got := Tokenize("A Phase II Study of Nivolumab in NSCLC")
	want := []string{"phase", "ii", "study", "nivolumab", "nsclc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_DropsSingleCharsAndStopWords(t *testing.T) {
	got := Tokenize("a b the of and rate")
	if !reflect.DeepEqual(got, []string{"rate"}) {
		t.Errorf("Tokenize = %v", got)
	}
}

func TestPipeline_TransformDeterministic(t *testing.T) {
	p := fittedPipeline()
	row := Row{Text: "nivolumab lung cancer", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"}

	a := p.Transform(row)
	b := p.Transform(row)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated transform differs: %+v vs %+v", a, b)
	}
}

func TestPipeline_FixedDimension(t *testing.T) {
	p := fittedPipeline()

	rows := []Row{
		{Text: "nivolumab", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"},
		{Text: "completely out of vocabulary words here", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"},
		{Text: "", OrgClass: "NIH", PrimaryPurpose: "PREVENTION"},
	}
	vecs := p.TransformAll(rows)
	if len(vecs) != len(rows) {
		t.Fatalf("expected %d vectors, got %d", len(rows), len(vecs))
	}
	for i, v := range vecs {
		if v.Dim != p.Dim() {
			t.Errorf("row %d: dim %d != pipeline dim %d", i, v.Dim, p.Dim())
		}
	}
}

func TestPipeline_FeatureNames(t *testing.T) {
	p := NewPipeline(0)
	p.Fit([]Row{
		{Text: "alpha beta", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"},
		{Text: "gamma", OrgClass: "OTHER", PrimaryPurpose: "PREVENTION"},
	})

	want := []string{
		"alpha", "beta", "gamma",
		"org_class=INDUSTRY", "org_class=OTHER",
		"primary_purpose=PREVENTION", "primary_purpose=TREATMENT",
	}
	got := p.FeatureNames()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("feature names %v, want %v", got, want)
	}
	if len(got) != p.Dim() {
		t.Errorf("name count %d != dim %d", len(got), p.Dim())
	}
}

func TestPipeline_UnseenCategoryZeroBlock(t *testing.T) {
	p := fittedPipeline()

	seen := p.Transform(Row{Text: "nivolumab", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"})
	unseen := p.Transform(Row{Text: "nivolumab", OrgClass: "MARTIAN", PrimaryPurpose: "TERRAFORMING"})

	// The unseen row's categorical block is all zero: only text indices
	// remain.
	textDim := p.Text.Dim()
	for _, idx := range unseen.Indices {
		if idx >= textDim {
			t.Errorf("unseen categories produced hot index %d", idx)
		}
	}
	if len(unseen.Indices) >= len(seen.Indices) {
		t.Errorf("unseen row should have fewer hot indices: %d vs %d", len(unseen.Indices), len(seen.Indices))
	}
}

func TestTextVectorizer_L2Normalized(t *testing.T) {
	p := fittedPipeline()
	v := p.Text.Transform("nivolumab lung cancer response")

	var norm float64
	for _, x := range v.Values {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("expected unit norm, got %f", math.Sqrt(norm))
	}
}

func TestTextVectorizer_MaxFeaturesBound(t *testing.T) {
	tv := NewTextVectorizer(2)
	tv.Fit([]string{
		"alpha alpha alpha beta beta gamma",
		"alpha beta delta",
	})

	if tv.Dim() != 2 {
		t.Fatalf("expected vocabulary of 2, got %d", tv.Dim())
	}
	if _, ok := tv.Vocab["alpha"]; !ok {
		t.Error("most frequent term missing from bounded vocabulary")
	}
	if _, ok := tv.Vocab["beta"]; !ok {
		t.Error("second most frequent term missing from bounded vocabulary")
	}
}

func TestTextVectorizer_NoVocabularyGrowth(t *testing.T) {
	p := fittedPipeline()
	before := p.Dim()
	p.Transform(Row{Text: "entirely novel terminology appears", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT"})
	if p.Dim() != before {
		t.Errorf("transform grew the vocabulary: %d -> %d", before, p.Dim())
	}
}

func TestPipeline_TransformBeforeFitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when transforming before fit")
		}
	}()
	NewPipeline(10).Transform(Row{Text: "x"})
}

func TestOneHotEncoder_Layout(t *testing.T) {
	e := NewOneHotEncoder()
	e.Fit([][]string{
		{"INDUSTRY", "TREATMENT"},
		{"NIH", "PREVENTION"},
	})

	if e.Dim() != 4 {
		t.Fatalf("expected dim 4, got %d", e.Dim())
	}

	// Categories are sorted per column; the second column's block
	// starts after the first column's categories.
	got := e.Transform([]string{"NIH", "PREVENTION"})
	want := []int{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Transform = %v, want %v", got, want)
	}
}

func TestVector_DotAndDense(t *testing.T) {
	v := Vector{Indices: []int{0, 3}, Values: []float64{2, 0.5}, Dim: 4}
	w := []float64{1, 1, 1, 4}
	if got := v.Dot(w); got != 4 {
		t.Errorf("Dot = %f, want 4", got)
	}
	if dense := v.Dense(); dense[3] != 0.5 || dense[1] != 0 {
		t.Errorf("Dense = %v", dense)
	}
}
