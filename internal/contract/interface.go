// Package contract loads the contract interface description and binds it to
// the deployed contract as a read-only proxy.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/surefi/surefi-gateway/internal/apperr"
)

// Method names the gateway calls.
const (
	MethodOwner    = "owner"
	MethodVerified = "verified"
)

// Interface loading errors.
var (
	ErrInterfaceNotFound  = errors.New("interface description not found")
	ErrMalformedInterface = errors.New("malformed interface description")
	ErrInterfaceMismatch  = errors.New("interface description does not match the expected contract")
)

// MethodSpec is the expected shape of a read-only method.
type MethodSpec struct {
	Name    string
	Inputs  []string
	Outputs []string
}

// ReadMethods are the methods a usable interface description must declare.
var ReadMethods = []MethodSpec{
	{Name: MethodOwner, Outputs: []string{"address"}},
	{Name: MethodVerified, Inputs: []string{"address"}, Outputs: []string{"bool"}},
}

// Interface is a parsed and validated interface description.
type Interface struct {
	abi  abi.ABI
	path string
}

// LoadInterface reads the interface description at path and validates it
// against ReadMethods.
func LoadInterface(path string) (*Interface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Configuration("load_interface", fmt.Errorf("%w at %s", ErrInterfaceNotFound, path))
		}
		return nil, apperr.Configuration("load_interface", fmt.Errorf("reading %s: %w", path, err))
	}

	iface, err := ParseInterface(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	iface.path = path
	return iface, nil
}

// ParseInterface decodes an ABI JSON document and validates it against
// ReadMethods.
func ParseInterface(data []byte) (*Interface, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperr.Configuration("parse_interface", fmt.Errorf("%w: %v", ErrMalformedInterface, err))
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Configuration("parse_interface", fmt.Errorf("%w: %v", ErrMalformedInterface, err))
	}

	iface := &Interface{abi: parsed}
	if err := iface.Require(ReadMethods...); err != nil {
		return nil, err
	}
	return iface, nil
}

// Require checks that every method in want is declared read-only with the
// given input and output types.
func (i *Interface) Require(want ...MethodSpec) error {
	var problems []string
	for _, w := range want {
		m, ok := i.abi.Methods[w.Name]
		if !ok {
			problems = append(problems, "missing method "+w.Name)
			continue
		}
		if !m.IsConstant() {
			problems = append(problems, fmt.Sprintf("method %s is not read-only (stateMutability %q)", w.Name, m.StateMutability))
		}
		if got := argTypes(m.Inputs); !slices.Equal(got, w.Inputs) {
			problems = append(problems, fmt.Sprintf("method %s takes (%s), want (%s)", w.Name, strings.Join(got, ","), strings.Join(w.Inputs, ",")))
		}
		if got := argTypes(m.Outputs); !slices.Equal(got, w.Outputs) {
			problems = append(problems, fmt.Sprintf("method %s returns (%s), want (%s)", w.Name, strings.Join(got, ","), strings.Join(w.Outputs, ",")))
		}
	}

	if len(problems) > 0 {
		return apperr.Configuration("validate_interface", fmt.Errorf("%w: %s", ErrInterfaceMismatch, strings.Join(problems, "; ")))
	}
	return nil
}

// ABI returns the parsed ABI.
func (i *Interface) ABI() abi.ABI {
	return i.abi
}

// Path returns the file the interface was loaded from, if any.
func (i *Interface) Path() string {
	return i.path
}

// Methods returns the declared method names, sorted.
func (i *Interface) Methods() []string {
	names := make([]string, 0, len(i.abi.Methods))
	for name := range i.abi.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func argTypes(args abi.Arguments) []string {
	if len(args) == 0 {
		return nil
	}
	types := make([]string, len(args))
	for i, a := range args {
		types[i] = a.Type.String()
	}
	return types
}
