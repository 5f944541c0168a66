package loader

import "github.com/seantiz/soundbatch/internal/model"

// normalize turns caller descriptors into an engine-ready manifest plus the
// errors detected locally. Requests keep the position of their descriptor as
// Order, so invalid entries leave gaps.
func normalize(descs []model.Descriptor, defaultChannels int) ([]model.LoadRequest, []model.ErrorEntry) {
	manifest := make([]model.LoadRequest, 0, len(descs))
	var errs []model.ErrorEntry
	seen := make(map[string]bool, len(descs))

	for i, d := range descs {
		req, reqErrs, ok := normalizeOne(d, i, defaultChannels)
		errs = append(errs, reqErrs...)
		if !ok {
			continue
		}
		if seen[req.ID] {
			errs = append(errs, model.ErrorEntry{
				ID:     req.ID,
				Source: req.Source.String(),
				Reason: model.ReasonDuplicateID,
			})
			continue
		}
		seen[req.ID] = true
		manifest = append(manifest, req)
	}

	return manifest, errs
}

// normalizeOne validates a single descriptor. ok is false when the request
// must not reach the engine; errs may be non-empty either way.
func normalizeOne(d model.Descriptor, order, defaultChannels int) (req model.LoadRequest, errs []model.ErrorEntry, ok bool) {
	data := model.AuxData{Channels: defaultChannels}
	if d.Data != nil {
		data = *d.Data
	}

	if !d.Source.IsVariant() {
		name := ResolveID(d.Source.Path)
		if name == "" {
			return model.LoadRequest{}, []model.ErrorEntry{{
				ID:     d.ID,
				Source: d.Source.Path,
				Reason: model.ReasonInvalidSource,
			}}, false
		}
		return model.LoadRequest{
			ID:     firstNonEmpty(d.ID, name),
			Source: model.Source{Path: d.Source.Path},
			Data:   data,
			Order:  order,
		}, nil, true
	}

	variants := make(map[string]string, len(d.Source.Variants))
	fallback := ""
	for _, name := range d.Source.VariantNames() {
		p := d.Source.Variants[name]
		resolved := ResolveID(p)
		if resolved == "" {
			errs = append(errs, model.ErrorEntry{
				ID:     d.ID,
				Source: p,
				Reason: model.ReasonInvalidAlternateSource,
			})
			continue
		}
		if fallback == "" {
			fallback = resolved
		}
		variants[name] = p
	}

	// With nothing left to load, the per-variant errors collapse into one.
	if len(variants) == 0 {
		return model.LoadRequest{}, []model.ErrorEntry{{
			ID:     d.ID,
			Source: d.Source.String(),
			Reason: model.ReasonInvalidSource,
		}}, false
	}

	return model.LoadRequest{
		ID:     firstNonEmpty(d.ID, fallback),
		Source: model.Source{Variants: variants},
		Data:   data,
		Order:  order,
	}, errs, true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
