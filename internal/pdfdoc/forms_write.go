package pdfdoc

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
)

const defaultAppearance = "/Helv 10 Tf 0 g"

// Author persists interactive form fields into documents. The source is
// never mutated: Write reads the source, adds the requested fields and
// writes a new document to the destination.
type Author struct {
	conf *model.Configuration
	log  *logrus.Entry
}

// NewAuthor creates a document author with relaxed validation, matching the
// tolerance used on the read path.
func NewAuthor() *Author {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Author{
		conf: conf,
		log:  logrus.WithField("component", "pdfdoc.author"),
	}
}

// Write reads the source document, persists the given placements and writes
// the result to w. A placement that cannot be persisted (bad page, bad
// geometry) is skipped and logged; Write reports which placements were
// actually added. Only a whole-document read or write failure is an error.
func (a *Author) Write(rs io.ReadSeeker, w io.Writer, placements []FieldPlacement) ([]FieldPlacement, error) {
	ctx, err := api.ReadContext(rs, a.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read document context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	fieldsArray, acroFormDict, err := ensureAcroForm(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare AcroForm: %w", err)
	}

	added := make([]FieldPlacement, 0, len(placements))
	for _, p := range placements {
		if err := a.addField(ctx, &fieldsArray, p); err != nil {
			a.log.WithFields(logrus.Fields{
				"field": p.Name,
				"page":  p.Page,
			}).Warnf("skipping field: %v", err)
			continue
		}
		added = append(added, p)
	}
	acroFormDict["Fields"] = fieldsArray

	if err := api.WriteContext(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return added, nil
}

// ensureAcroForm returns the document's Fields array and AcroForm dict,
// bootstrapping both (plus a default appearance font) when the document has
// no interactive form yet.
func ensureAcroForm(ctx *model.Context) (types.Array, types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	if acroFormObj, found := rootDict.Find("AcroForm"); found {
		acroFormDict, err := ctx.DereferenceDict(acroFormObj)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
		}
		if acroFormDict != nil {
			fieldsArray := types.Array{}
			if fieldsObj, found := acroFormDict.Find("Fields"); found {
				if arr, err := ctx.DereferenceArray(fieldsObj); err == nil && arr != nil {
					fieldsArray = arr
				}
			}
			acroFormDict["NeedAppearances"] = types.Boolean(true)
			return fieldsArray, acroFormDict, nil
		}
	}

	fontDict := types.Dict(map[string]types.Object{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name("Helvetica"),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
	fontRef, err := ctx.IndRefForNewObject(fontDict)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register appearance font: %w", err)
	}

	acroFormDict := types.Dict(map[string]types.Object{
		"Fields":          types.Array{},
		"DA":              types.StringLiteral(defaultAppearance),
		"NeedAppearances": types.Boolean(true),
		"DR": types.Dict(map[string]types.Object{
			"Font": types.Dict(map[string]types.Object{
				"Helv": *fontRef,
			}),
		}),
	})
	rootDict["AcroForm"] = acroFormDict

	return types.Array{}, acroFormDict, nil
}

// addField builds a merged field+widget annotation for one placement and
// wires it into the Fields array and the page's Annots.
func (a *Author) addField(ctx *model.Context, fieldsArray *types.Array, p FieldPlacement) error {
	if p.Page < 1 || p.Page > ctx.PageCount {
		return fmt.Errorf("page %d out of range (1-%d)", p.Page, ctx.PageCount)
	}
	if p.Rect[2] <= p.Rect[0] || p.Rect[3] <= p.Rect[1] {
		return fmt.Errorf("degenerate geometry %v", p.Rect)
	}

	fieldDict := types.Dict(map[string]types.Object{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Widget"),
		"T":       types.StringLiteral(p.Name),
		"Rect":    types.NewNumberArray(p.Rect[0], p.Rect[1], p.Rect[2], p.Rect[3]),
		"F":       types.Integer(4), // print
	})
	if p.Label != "" {
		fieldDict["TU"] = types.StringLiteral(p.Label)
	}

	var flags types.Integer
	if p.Required {
		flags |= 2 // bit 2
	}

	switch p.Kind {
	case fields.KindCheckbox:
		fieldDict["FT"] = types.Name("Btn")
		fieldDict["V"] = types.Name("Off")
		fieldDict["AS"] = types.Name("Off")
		fieldDict["MK"] = types.Dict(map[string]types.Object{
			"BC": types.NewNumberArray(0, 0, 0),
			"BG": types.NewNumberArray(1, 1, 1),
		})
		fieldDict["BS"] = types.Dict(map[string]types.Object{
			"W": types.Integer(1),
			"S": types.Name("S"),
		})
	case fields.KindTextarea:
		flags |= 1 << 12 // bit 13: multiline
		fallthrough
	case fields.KindText, fields.KindDate, fields.KindEmail, fields.KindTel, fields.KindNumber:
		fieldDict["FT"] = types.Name("Tx")
		fieldDict["DA"] = types.StringLiteral(defaultAppearance)
		if p.MaxLen > 0 {
			fieldDict["MaxLen"] = types.Integer(p.MaxLen)
		}
	default:
		return fmt.Errorf("unsupported field kind %q", p.Kind)
	}

	if flags != 0 {
		fieldDict["Ff"] = flags
	}

	fieldRef, err := ctx.IndRefForNewObject(fieldDict)
	if err != nil {
		return fmt.Errorf("failed to register field object: %w", err)
	}

	pageDict, _, _, err := ctx.PageDict(p.Page, false)
	if err != nil {
		return fmt.Errorf("failed to resolve page %d: %w", p.Page, err)
	}
	if pageDict == nil {
		return fmt.Errorf("page %d has no dictionary", p.Page)
	}

	annots := types.Array{}
	if annotsObj, found := pageDict.Find("Annots"); found {
		if arr, err := ctx.DereferenceArray(annotsObj); err == nil && arr != nil {
			annots = arr
		}
	}
	pageDict["Annots"] = append(annots, *fieldRef)

	*fieldsArray = append(*fieldsArray, *fieldRef)
	return nil
}

// PageDim holds the dimensions of one page in document points.
type PageDim struct {
	Width  float64
	Height float64
}

// PageSizes returns the dimensions of every page, in page order.
func PageSizes(rs io.ReadSeeker) ([]PageDim, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read document context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	sizes := make([]PageDim, 0, len(dims))
	for _, d := range dims {
		sizes = append(sizes, PageDim{Width: d.Width, Height: d.Height})
	}
	return sizes, nil
}
