package features

// Row is one trial description as the pipeline consumes it: the
// combined free-text field plus the two categorical selections. The
// named struct keeps the training and inference field contracts
// identical.
type Row struct {
	Text           string
	OrgClass       string
	PrimaryPurpose string
}

// Pipeline composes the text vectorizer and the categorical encoder
// into one transformer with a fixed output dimensionality: the TF-IDF
// block first, then the indicator blocks.
type Pipeline struct {
	Text *TextVectorizer
	Cats *OneHotEncoder
}

// NewPipeline creates an unfitted pipeline with the given vocabulary
// bound.
func NewPipeline(maxFeatures int) *Pipeline {
	return &Pipeline{
		Text: NewTextVectorizer(maxFeatures),
		Cats: NewOneHotEncoder(),
	}
}

// Fitted reports whether Fit has run.
func (p *Pipeline) Fitted() bool {
	return p.Text.Fitted() && p.Cats.Fitted()
}

// Fit learns vocabulary and category maps from the training rows.
func (p *Pipeline) Fit(rows []Row) {
	corpus := make([]string, len(rows))
	cats := make([][]string, len(rows))
	for i, r := range rows {
		corpus[i] = r.Text
		cats[i] = []string{r.OrgClass, r.PrimaryPurpose}
	}
	p.Text.Fit(corpus)
	p.Cats.Fit(cats)
}

// Transform maps one row to a sparse vector of the fitted
// dimensionality. Panics if the pipeline has not been fitted.
func (p *Pipeline) Transform(r Row) Vector {
	if !p.Fitted() {
		panic("features: Pipeline.Transform called before Fit")
	}

	v := p.Text.Transform(r.Text)
	textDim := p.Text.Dim()
	for _, idx := range p.Cats.Transform([]string{r.OrgClass, r.PrimaryPurpose}) {
		v.Indices = append(v.Indices, textDim+idx)
		v.Values = append(v.Values, 1)
	}
	v.Dim = p.Dim()
	return v
}

// TransformAll transforms a batch of rows. The output always has one
// vector per input row, each of the same fixed dimensionality.
func (p *Pipeline) TransformAll(rows []Row) []Vector {
	out := make([]Vector, len(rows))
	for i, r := range rows {
		out[i] = p.Transform(r)
	}
	return out
}

// Dim returns the fixed output dimensionality of the fitted pipeline.
func (p *Pipeline) Dim() int {
	return p.Text.Dim() + p.Cats.Dim()
}

// FeatureNames returns one name per output dimension in the pipeline's
// layout: vocabulary terms first, then the categorical indicators.
func (p *Pipeline) FeatureNames() []string {
	names := p.Text.FeatureNames()
	return append(names, p.Cats.FeatureNames([]string{"org_class", "primary_purpose"})...)
}
