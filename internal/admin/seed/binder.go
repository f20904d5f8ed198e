package seed

import (
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

// RootKey is the key whose subtree holds the seed sections in a seed file.
const RootKey = "seed"

//go:embed schemas/*.json
var schemaFS embed.FS

var schemas = sync.OnceValues(func() (map[domain.Kind]*gojsonschema.Schema, error) {
	out := make(map[domain.Kind]*gojsonschema.Schema, len(domain.Kinds))
	for _, k := range domain.Kinds {
		raw, err := schemaFS.ReadFile("schemas/" + k.String() + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s schema: %w", k, err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
})

// LoadFile reads a YAML, JSON or TOML seed file and returns its Seed subtree.
func LoadFile(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return subtree(v), nil
}

// ReadTree parses a seed document of the given format ("json", "yaml", ...).
// The document may hold the sections directly or under a Seed key.
func ReadTree(r io.Reader, format string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("parse seed document: %w", err)
	}
	return subtree(v), nil
}

func subtree(v *viper.Viper) *viper.Viper {
	if v.IsSet(RootKey) {
		if sub := v.Sub(RootKey); sub != nil {
			return sub
		}
	}
	return v
}

// Has reports whether tree carries a section for kind.
func Has(tree *viper.Viper, kind domain.Kind) bool {
	return tree != nil && tree.IsSet(kind.String())
}

func BindAPIScopes(tree *viper.Viper) (APIScopeOptions, error) {
	return bind[APIScopeOptions](tree, domain.KindAPIScopes)
}

func BindIdentityResources(tree *viper.Viper) (IdentityResourceOptions, error) {
	return bind[IdentityResourceOptions](tree, domain.KindIdentityResources)
}

func BindClients(tree *viper.Viper) (ClientOptions, error) {
	return bind[ClientOptions](tree, domain.KindClients)
}

func BindRoles(tree *viper.Viper) (RoleOptions, error) {
	return bind[RoleOptions](tree, domain.KindRoles)
}

func BindRoleClaims(tree *viper.Viper) (RoleClaimAssignmentOptions, error) {
	return bind[RoleClaimAssignmentOptions](tree, domain.KindRoleClaims)
}

func BindUsers(tree *viper.Viper) (UserOptions, error) {
	return bind[UserOptions](tree, domain.KindUsers)
}

func BindUserClaims(tree *viper.Viper) (UserClaimAssignmentOptions, error) {
	return bind[UserClaimAssignmentOptions](tree, domain.KindUserClaims)
}

func BindUserRoles(tree *viper.Viper) (UserRoleAssignmentOptions, error) {
	return bind[UserRoleAssignmentOptions](tree, domain.KindUserRoles)
}

// bind validates the section of tree named after kind against its schema and
// decodes the whole tree into T. Only the field tagged with the section name
// is populated; other sections are ignored.
func bind[T any](tree *viper.Viper, kind domain.Kind) (T, error) {
	var opts T

	if !Has(tree, kind) {
		return opts, &domain.ValidationError{Section: kind.String(), Problems: []string{"section is missing"}}
	}
	if err := validate(kind, tree.Get(kind.String())); err != nil {
		return opts, err
	}

	hook := viper.DecodeHook(mapstructure.StringToTimeHookFunc(time.RFC3339))
	if err := tree.Unmarshal(&opts, hook); err != nil {
		return opts, &domain.ValidationError{Section: kind.String(), Problems: []string{err.Error()}}
	}
	return opts, nil
}

func validate(kind domain.Kind, section any) error {
	all, err := schemas()
	if err != nil {
		return err
	}

	res, err := all[kind].Validate(gojsonschema.NewGoLoader(lowerKeys(section)))
	if err != nil {
		return &domain.ValidationError{Section: kind.String(), Problems: []string{err.Error()}}
	}
	if res.Valid() {
		return nil
	}

	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return &domain.ValidationError{Section: kind.String(), Problems: problems}
}

// lowerKeys returns a copy of v with every map key lower-cased, matching the
// way the configuration tree treats keys.
func lowerKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strings.ToLower(k)] = lowerKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strings.ToLower(fmt.Sprint(k))] = lowerKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = lowerKeys(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = lowerKeys(val)
		}
		return out
	default:
		return v
	}
}
