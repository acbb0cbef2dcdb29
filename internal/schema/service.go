package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contract "github.com/blckdfly/sphyre/contracts/registry"
	"github.com/blckdfly/sphyre/internal/audit"
	"github.com/blckdfly/sphyre/internal/identity"
	"github.com/blckdfly/sphyre/pkg/attrs"
	dErrors "github.com/blckdfly/sphyre/pkg/domain-errors"
)

// Service manages schema records and validates credential attribute maps
// against them. Schemas are anchored in the registry by content hash so
// verifiers can detect silent redefinition.
type Service struct {
	store    Store
	registry contract.Contract
	policy   identity.MethodPolicy
	audit    *audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, reg contract.Contract, policy identity.MethodPolicy, rec *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		registry: reg,
		policy:   policy,
		audit:    rec,
		logger:   logger,
	}
}

// CreateInput describes a new schema. Attribute names must be unique and
// every data type must be one of the known kinds.
type CreateInput struct {
	IssuerDID  string
	Name       string
	Version    string
	Attributes []Attribute
}

func (in CreateInput) validate(policy identity.MethodPolicy) error {
	if err := policy.Validate(in.IssuerDID); err != nil {
		return err
	}
	if in.Name == "" || in.Version == "" {
		return dErrors.New(dErrors.CodeValidation, "schema name and version are required")
	}
	if len(in.Attributes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "schema needs at least one attribute")
	}
	seen := make(map[string]bool, len(in.Attributes))
	for _, attr := range in.Attributes {
		if attr.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "attribute name is required")
		}
		if seen[attr.Name] {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("duplicate attribute %s", attr.Name))
		}
		seen[attr.Name] = true
		if !attr.DataType.known() {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("attribute %s has unknown data type %q", attr.Name, attr.DataType))
		}
	}
	return nil
}

// Create stores a schema and anchors its content hash in the registry.
// Anchoring failure does not fail creation; the schema can be re-anchored
// later and validation works from the local record.
func (s *Service) Create(ctx context.Context, in CreateInput) (Schema, error) {
	if err := in.validate(s.policy); err != nil {
		return Schema{}, err
	}

	now := time.Now().UTC()
	sc := Schema{
		ID:         SchemaID(in.IssuerDID, in.Name, in.Version),
		Name:       in.Name,
		Version:    in.Version,
		IssuerDID:  in.IssuerDID,
		Attributes: in.Attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.store.FindByID(ctx, sc.ID); err == nil {
		return Schema{}, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("schema %s already exists", sc.ID))
	}

	receipt, err := s.registry.RegisterSchema(ctx, sc.ID, contentHash(sc))
	if err != nil {
		s.logger.Warn("schema registry anchoring failed", "schema_id", sc.ID, "error", err)
	} else {
		sc.RegistryTx = receipt.TxHash
	}

	if err := s.store.Save(ctx, sc); err != nil {
		return Schema{}, dErrors.Wrap(err, dErrors.CodeStorage, "save schema")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionSchemaCreated,
		ActorDID:  sc.IssuerDID,
		SubjectID: sc.ID,
		Detail:    sc.Name,
	})
	s.logger.Info("schema created", "schema_id", sc.ID, "anchored", sc.RegistryTx != "")
	return sc, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Schema, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) ListByIssuer(ctx context.Context, issuerDID string) ([]Schema, error) {
	return s.store.ListByIssuer(ctx, issuerDID)
}

func (s *Service) Search(ctx context.Context, name string) ([]Schema, error) {
	return s.store.Search(ctx, name)
}

// IsAnchored reports whether the registry carries a hash for the schema.
func (s *Service) IsAnchored(ctx context.Context, schemaID string) (bool, error) {
	return s.registry.IsSchemaRegistered(ctx, schemaID)
}

// Validate checks an attribute map against a schema and reports every
// mismatch: missing required attributes, kind mismatches, and attributes
// the schema does not define.
func (s *Service) Validate(ctx context.Context, schemaID string, data attrs.Map) (ValidationResult, error) {
	sc, err := s.store.FindByID(ctx, schemaID)
	if err != nil {
		return ValidationResult{}, err
	}

	var errs []string
	for _, attr := range sc.Attributes {
		if _, ok := data[attr.Name]; attr.Required && !ok {
			errs = append(errs, fmt.Sprintf("required attribute %s is missing", attr.Name))
		}
	}
	for _, name := range data.SortedKeys() {
		attr, ok := sc.attribute(name)
		if !ok {
			errs = append(errs, fmt.Sprintf("attribute %s is not defined in the schema", name))
			continue
		}
		if err := attr.DataType.accepts(data[name]); err != nil {
			errs = append(errs, fmt.Sprintf("attribute %s %v", name, err))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}, nil
}

// ValidateAttributes is the error-returning form of Validate used by
// collaborators that just need a pass/fail.
func (s *Service) ValidateAttributes(ctx context.Context, schemaID string, data attrs.Map) error {
	result, err := s.Validate(ctx, schemaID, data)
	if err != nil {
		return err
	}
	if !result.IsValid {
		return dErrors.New(dErrors.CodeValidation, strings.Join(result.Errors, "; "))
	}
	return nil
}

// SchemaID builds the issuer-scoped schema identifier.
func SchemaID(issuerDID, name, version string) string {
	return fmt.Sprintf("%s:%s:%s", issuerDID, name, version)
}

// contentHash hashes the schema's canonical JSON form. Attribute order is
// part of the schema, so it is hashed as declared.
func contentHash(sc Schema) string {
	// RegistryTx is set after anchoring and must not feed the hash.
	sc.RegistryTx = ""
	raw, _ := json.Marshal(sc)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
