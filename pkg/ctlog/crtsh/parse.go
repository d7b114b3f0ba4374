package crtsh

import (
	"context"
	"strings"
	"subhunt/pkg/domain"
	"subhunt/pkg/logger"
	"subhunt/pkg/serrors"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

const (
	nameValueKey   = "name_value"
	wildcardPrefix = "*."
)

// Decode reads a crt.sh JSON body, an array of certificate entries, and collects
// the hostnames listed in their name_value fields. Each name_value holds one
// name per line. Names are trimmed, empty lines and wildcard names are dropped,
// and case is kept as is. An entry without name_value, or with a null one,
// contributes nothing.
//
// Any decoding problem, including a top level value that is not an array, fails
// the whole body with serrors.ErrMalformedResponse.
func Decode(body []byte) (domain.SubdomainSet, error) {
	if !jx.Valid(body) {
		return nil, serrors.With(serrors.ErrMalformedResponse, "crt.sh response is not valid JSON")
	}

	d := jx.DecodeBytes(body)
	if tt := d.Next(); tt != jx.Array {
		return nil, serrors.With(serrors.ErrMalformedResponse, "expected a JSON array, got %s", tt)
	}

	set := domain.NewSubdomainSet()
	entry := 0
	if err := d.Arr(func(d *jx.Decoder) error {
		defer func() { entry++ }()

		if tt := d.Next(); tt != jx.Object {
			return errors.Errorf("entry %d: expected object, got %s", entry, tt)
		}

		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != nameValueKey {
				return d.Skip()
			}

			switch tt := d.Next(); tt {
			case jx.Null:
				return d.Null()
			case jx.String:
				v, err := d.Str()
				if err != nil {
					return errors.Wrapf(err, "entry %d: read %s", entry, nameValueKey)
				}
				addNames(set, v)

				return nil
			default:
				return errors.Errorf("entry %d: %s is %s, not a string", entry, nameValueKey, tt)
			}
		})
	}); err != nil {
		return nil, serrors.Wrap(serrors.ErrMalformedResponse, err, "could not decode certificate entries")
	}

	return set, nil
}

func addNames(set domain.SubdomainSet, nameValue string) {
	for _, name := range strings.Split(nameValue, "\n") {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, wildcardPrefix) {
			continue
		}
		set.Add(name)
	}
}

// Parse is the fail-open form of Decode: a body that cannot be decoded is logged,
// counted and turned into an empty set, so callers see "nothing found" instead of
// an error. Use Decode to tell the two apart.
func (c *Client) Parse(ctx context.Context, body []byte) domain.SubdomainSet {
	set, err := Decode(body)
	if err != nil {
		c.malformed.Add(ctx, 1)
		logger.Error(ctx, "could not decode crt.sh response", zap.Error(err), zap.Int("bytes", len(body)))

		return domain.NewSubdomainSet()
	}

	fields := []zap.Field{zap.Int("count", set.Len())}
	if logger.IsDebug(ctx) {
		fields = append(fields, zap.Strings("names", set.Sorted()))
	}
	logger.Debug(ctx, "parsed subdomains", fields...)

	return set
}
