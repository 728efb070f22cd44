package store

import "encoding/json"

// ToDoc converts a typed value into a Doc via its JSON form.
func ToDoc(v any) (Doc, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Doc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// FromDoc decodes a Doc into the typed value pointed to by v.
func FromDoc(doc Doc, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// ToDocs converts a slice of typed values into Docs.
func ToDocs[T any](vs []T) ([]Doc, error) {
	docs := make([]Doc, 0, len(vs))
	for _, v := range vs {
		doc, err := ToDoc(v)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FromDocs decodes a slice of Docs into typed values.
func FromDocs[T any](docs []Doc) ([]T, error) {
	vs := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := FromDoc(doc, &v); err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}
