package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/vault-import/pkg/constants"
	"github.com/iota-uz/vault-import/pkg/serrors"
)

// Load reads and decodes the document at path. It does not validate.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(bytes.NewReader(b))
}

func Decode(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", serrors.ErrStructural, err)
	}
	return &doc, nil
}

// Validate checks the document's structure. Departments are always required;
// persons are required unless companyOnly is set.
func (d *Document) Validate(companyOnly bool) error {
	if d.Departments == nil {
		return fmt.Errorf("%w: missing required section %q", serrors.ErrStructural, "departments")
	}
	if d.Persons == nil && !companyOnly {
		return fmt.Errorf("%w: missing required section %q", serrors.ErrStructural, "persons")
	}
	err := constants.Validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Document."), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", serrors.ErrStructural, strings.Join(msgs, "; "))
}
