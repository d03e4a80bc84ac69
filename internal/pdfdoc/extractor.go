package pdfdoc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

const (
	// Fallback page dimensions (A4 in points) for documents whose page tree
	// carries no resolvable MediaBox.
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0

	defaultFontSize = 12.0

	// Glyph fragments on the same baseline are merged into one run when the
	// horizontal gap stays below gapFactor font sizes; a space is inserted
	// when the gap exceeds spaceFactor font sizes.
	baselineTolerance = 2.0
	gapFactor         = 1.2
	spaceFactor       = 0.25
)

// Extractor reads positioned text runs from document bytes. It is an
// explicit, caller-owned handle: construct it once and share it by reference
// across analyzer and backfiller invocations. It holds no mutable state, so
// concurrent use is safe.
type Extractor struct {
	maxFileSize int64
	log         *logrus.Entry
}

// NewExtractor creates a text extractor with the given file size limit.
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{
		maxFileSize: maxFileSize,
		log:         logrus.WithField("component", "pdfdoc.extractor"),
	}
}

// ExtractPages returns, per page, the ordered text runs plus page
// dimensions. A page with no extractable text yields an empty run list, not
// an error; only an unreadable document fails.
func (e *Extractor) ExtractPages(doc []byte) ([]PageText, error) {
	if e.maxFileSize > 0 && int64(len(doc)) > e.maxFileSize {
		return nil, fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(doc), e.maxFileSize)
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	pages := make([]PageText, 0, reader.NumPage())
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		pages = append(pages, e.extractPage(reader, pageNum))
	}

	return pages, nil
}

// extractPage extracts one page, recovering from parse panics in the
// underlying library so a single broken page never aborts the document.
func (e *Extractor) extractPage(reader *pdf.Reader, pageNum int) (result PageText) {
	result = PageText{Number: pageNum, Width: defaultPageWidth, Height: defaultPageHeight}

	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("page", pageNum).Warnf("text extraction panicked: %v", r)
			result.Runs = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return result
	}

	if w, h, ok := pageDimensions(page.V); ok {
		result.Width = w
		result.Height = h
	}

	content := page.Content()
	result.Runs = mergeRuns(content.Text, pageNum, result.Height)
	return result
}

// pageDimensions resolves the MediaBox, walking up the page tree for
// inherited values.
func pageDimensions(v pdf.Value) (width, height float64, ok bool) {
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if !mb.IsNull() && mb.Len() == 4 {
			width = mb.Index(2).Float64() - mb.Index(0).Float64()
			height = mb.Index(3).Float64() - mb.Index(1).Float64()
			if width > 0 && height > 0 {
				return width, height, true
			}
		}
		v = v.Key("Parent")
	}
	return 0, 0, false
}

// mergeRuns groups glyph-level fragments into line runs and converts their
// positions from the document's bottom-up space into top-left-origin y-down
// space.
func mergeRuns(texts []pdf.Text, pageNum int, pageHeight float64) []TextRun {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > baselineTolerance || diff < -baselineTolerance {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var runs []TextRun
	var buf bytes.Buffer
	var runX, runY, runEnd, runSize float64

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		height := runSize
		if height <= 0 {
			height = defaultFontSize
		}
		runs = append(runs, TextRun{
			Content: buf.String(),
			X:       runX,
			Y:       pageHeight - runY - height,
			Width:   runEnd - runX,
			Height:  height,
			Page:    pageNum,
		})
		buf.Reset()
	}

	for _, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}

		sameLine := buf.Len() > 0 && abs(t.Y-runY) <= baselineTolerance
		gap := t.X - runEnd

		if !sameLine || gap > size*gapFactor || gap < -size {
			flush()
			runX, runY, runSize = t.X, t.Y, size
			runEnd = t.X
		} else if gap > size*spaceFactor {
			buf.WriteByte(' ')
		}

		buf.WriteString(t.S)
		if end := t.X + t.W; end > runEnd {
			runEnd = end
		}
		if size > runSize {
			runSize = size
		}
	}
	flush()

	return runs
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
