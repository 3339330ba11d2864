// SPDX-License-Identifier: MPL-2.0

package module

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abstractsdk/abstract/pkg/types"
)

// ReferenceKind tags the variants of Reference.
const (
	KindAccountBase ReferenceKind = "account_base"
	KindApp         ReferenceKind = "app"
	KindAdapter     ReferenceKind = "adapter"
	KindStandalone  ReferenceKind = "standalone"
	KindService     ReferenceKind = "service"
)

// ErrInvalidReference is returned for references that do not match their kind.
var ErrInvalidReference = errors.New("invalid module reference")

type (
	// ReferenceKind names a module reference variant.
	ReferenceKind string

	// Reference tells the host how to reach a module. It is a closed sum over the
	// five reference kinds: code-based kinds carry CodeID, address-based kinds carry
	// Address. Use the constructors; consumers switch exhaustively on Kind.
	Reference struct {
		Kind    ReferenceKind
		CodeID  uint64
		Address types.Addr
	}
)

// AccountBaseRef references the account manager code.
func AccountBaseRef(codeID uint64) Reference { return Reference{Kind: KindAccountBase, CodeID: codeID} }

// AppRef references app code instantiated per account.
func AppRef(codeID uint64) Reference { return Reference{Kind: KindApp, CodeID: codeID} }

// AdapterRef references a shared adapter instance.
func AdapterRef(addr types.Addr) Reference { return Reference{Kind: KindAdapter, Address: addr} }

// StandaloneRef references standalone code instantiated per account.
func StandaloneRef(codeID uint64) Reference { return Reference{Kind: KindStandalone, CodeID: codeID} }

// ServiceRef references a shared service instance.
func ServiceRef(addr types.Addr) Reference { return Reference{Kind: KindService, Address: addr} }

// String returns the kind as a string.
func (k ReferenceKind) String() string { return string(k) }

// IsCodeBased reports whether the kind is replaced by code migration at a stable
// address rather than by swapping addresses.
func (k ReferenceKind) IsCodeBased() bool {
	switch k {
	case KindAccountBase, KindApp, KindStandalone:
		return true
	case KindAdapter, KindService:
		return false
	default:
		return false
	}
}

// HasDependencies reports whether modules of this kind declare dependencies that
// the account tracks.
func (k ReferenceKind) HasDependencies() bool {
	switch k {
	case KindApp, KindAdapter:
		return true
	case KindAccountBase, KindStandalone, KindService:
		return false
	default:
		return false
	}
}

// Validate checks that the reference carries the field its kind requires.
func (r Reference) Validate() error {
	switch r.Kind {
	case KindAccountBase, KindApp, KindStandalone:
		if r.CodeID == 0 {
			return fmt.Errorf("%w: %s reference needs a code id", ErrInvalidReference, r.Kind)
		}
		if r.Address != "" {
			return fmt.Errorf("%w: %s reference must not carry an address", ErrInvalidReference, r.Kind)
		}
	case KindAdapter, KindService:
		if err := r.Address.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReference, err)
		}
		if r.CodeID != 0 {
			return fmt.Errorf("%w: %s reference must not carry a code id", ErrInvalidReference, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidReference, r.Kind)
	}
	return nil
}

// String renders "kind(code 3)" or "kind(addr)".
func (r Reference) String() string {
	if r.Kind.IsCodeBased() {
		return fmt.Sprintf("%s(code %d)", r.Kind, r.CodeID)
	}
	return fmt.Sprintf("%s(%s)", r.Kind, r.Address)
}

// MarshalJSON encodes the reference as a single-key object, e.g. {"app":12} or
// {"adapter":"contract3"}.
func (r Reference) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Kind.IsCodeBased() {
		return json.Marshal(map[ReferenceKind]uint64{r.Kind: r.CodeID})
	}
	return json.Marshal(map[ReferenceKind]types.Addr{r.Kind: r.Address})
}

// UnmarshalJSON decodes the single-key object form.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var raw map[ReferenceKind]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected exactly one kind, got %d", ErrInvalidReference, len(raw))
	}
	for kind, value := range raw {
		ref := Reference{Kind: kind}
		switch kind {
		case KindAccountBase, KindApp, KindStandalone:
			if err := json.Unmarshal(value, &ref.CodeID); err != nil {
				return fmt.Errorf("%w: %s code id: %w", ErrInvalidReference, kind, err)
			}
		case KindAdapter, KindService:
			if err := json.Unmarshal(value, &ref.Address); err != nil {
				return fmt.Errorf("%w: %s address: %w", ErrInvalidReference, kind, err)
			}
		default:
			return fmt.Errorf("%w: unknown kind %q", ErrInvalidReference, kind)
		}
		*r = ref
	}
	return nil
}
