package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"

	"github.com/formsense/formsense/internal/fields"
)

// ReadFields returns all interactive form fields present in the document.
// Malformed field dictionaries are skipped, not fatal; only an unreadable
// document fails.
func ReadFields(doc []byte) ([]ExistingField, error) {
	ctx, err := readContext(doc)
	if err != nil {
		return nil, err
	}
	return readFieldsFromContext(ctx)
}

// HasInteractiveFields reports whether the document carries at least one
// interactive form field.
func HasInteractiveFields(doc []byte) (bool, error) {
	existing, err := ReadFields(doc)
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

func readContext(doc []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(doc), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read document context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

func readFieldsFromContext(ctx *model.Context) ([]ExistingField, error) {
	log := logrus.WithField("component", "pdfdoc.forms")

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	existing := []ExistingField{}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return existing, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return existing, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return existing, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	annotPages := annotPageIndex(ctx)

	for i, fieldRef := range fieldsArray {
		field, err := readField(ctx, fieldRef, i, annotPages)
		if err != nil {
			log.WithField("index", i).Warnf("skipping malformed field: %v", err)
			continue
		}
		if field != nil {
			existing = append(existing, *field)
		}
	}

	return existing, nil
}

// annotPageIndex maps widget annotation object numbers to page numbers so
// fields can be attributed to the page their widget sits on.
func annotPageIndex(ctx *model.Context) map[int]int {
	index := make(map[int]int)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageDict, _, _, err := ctx.PageDict(pageNr, false)
		if err != nil || pageDict == nil {
			continue
		}
		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := ctx.DereferenceArray(annotsObj)
		if err != nil {
			continue
		}
		for _, a := range annots {
			if ir, ok := a.(types.IndirectRef); ok {
				index[ir.ObjectNumber.Value()] = pageNr
			}
		}
	}
	return index
}

func readField(ctx *model.Context, fieldObj types.Object, index int, annotPages map[int]int) (*ExistingField, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil, nil
	}

	field := &ExistingField{Page: 1}

	if ir, ok := fieldObj.(types.IndirectRef); ok {
		if pageNr, found := annotPages[ir.ObjectNumber.Value()]; found {
			field.Page = pageNr
		}
	}

	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			field.Name = name
		}
	}
	if field.Name == "" {
		field.Name = fmt.Sprintf("field_%d", index)
	}

	if labelObj, found := fieldDict.Find("TU"); found {
		if label, err := ctx.DereferenceStringOrHexLiteral(labelObj, model.V10, nil); err == nil {
			field.Label = label
		}
	}

	field.Kind = readFieldKind(ctx, fieldDict)

	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			field.Required = (flags.Value() & 2) != 0 // bit 2
		}
	}

	if maxLenObj, found := fieldDict.Find("MaxLen"); found {
		if maxLen, err := ctx.DereferenceInteger(maxLenObj); err == nil && maxLen != nil {
			field.MaxLength = maxLen.Value()
		}
	}

	if rect, ok := readFieldRect(ctx, fieldDict); ok {
		field.Rect = rect
	}

	return field, nil
}

// readFieldKind maps the FT entry onto the closed field kind set. Choice and
// signature fields fall back to text: the pipeline only distinguishes
// text-like entry from boolean toggles.
func readFieldKind(ctx *model.Context, fieldDict types.Dict) fields.FieldKind {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return readFieldKind(ctx, parentDict)
			}
		}
		return fields.KindText
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return fields.KindText
	}

	switch ftName {
	case "Btn":
		return fields.KindCheckbox
	case "Tx":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				if (flags.Value() & (1 << 12)) != 0 { // bit 13: multiline
					return fields.KindTextarea
				}
			}
		}
		return fields.KindText
	default:
		return fields.KindText
	}
}

func readFieldRect(ctx *model.Context, fieldDict types.Dict) ([4]float64, bool) {
	var rect [4]float64

	rectObj, found := fieldDict.Find("Rect")
	if !found {
		// Fields with separate widget annotations carry the Rect on the
		// first kid.
		kidsObj, found := fieldDict.Find("Kids")
		if !found {
			return rect, false
		}
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil || len(kids) == 0 {
			return rect, false
		}
		widgetDict, err := ctx.DereferenceDict(kids[0])
		if err != nil || widgetDict == nil {
			return rect, false
		}
		rectObj, found = widgetDict.Find("Rect")
		if !found {
			return rect, false
		}
	}

	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return rect, false
	}
	for i, coord := range rectArray {
		f, err := ctx.DereferenceNumber(coord)
		if err != nil {
			return rect, false
		}
		rect[i] = f
	}
	return rect, true
}
