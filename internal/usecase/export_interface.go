package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// InterfaceFormat selects how the factory interface is rendered
type InterfaceFormat string

const (
	FormatSolidity InterfaceFormat = "solidity"
	FormatEthers   InterfaceFormat = "ethers"
	FormatViem     InterfaceFormat = "viem"
	FormatJSON     InterfaceFormat = "json"
	FormatYAML     InterfaceFormat = "yaml"
)

// InterfaceFormats lists the supported formats in display order
var InterfaceFormats = []InterfaceFormat{FormatSolidity, FormatEthers, FormatViem, FormatJSON, FormatYAML}

// InterfaceName is the Solidity name of the factory interface
const InterfaceName = "IXFactory"

// ParseInterfaceFormat validates a format flag
func ParseInterfaceFormat(s string) (InterfaceFormat, error) {
	format := InterfaceFormat(strings.ToLower(s))
	if format == "" {
		return FormatSolidity, nil
	}
	if format == "ethersjs" || format == "ethers.js" {
		return FormatEthers, nil
	}
	if !lo.Contains(InterfaceFormats, format) {
		return "", fmt.Errorf("unknown interface format %q (use %s)", s, strings.Join(lo.Map(InterfaceFormats, func(f InterfaceFormat, _ int) string {
			return string(f)
		}), ", "))
	}
	return format, nil
}

// FileName is the conventional file name for the format
func (f InterfaceFormat) FileName() string {
	switch f {
	case FormatSolidity:
		return InterfaceName + ".sol"
	case FormatViem:
		return InterfaceName + ".ts"
	case FormatYAML:
		return InterfaceName + ".yaml"
	default:
		return InterfaceName + ".json"
	}
}

// ExportInterfaceParams contains parameters for rendering the interface
type ExportInterfaceParams struct {
	Format InterfaceFormat
	// Output is written when set, otherwise only Content is returned
	Output string
}

// ExportInterfaceResult holds the rendered interface
type ExportInterfaceResult struct {
	Format  InterfaceFormat
	Content string
	Path    string
}

// ExportInterface renders the factory ABI for contract and client tooling
type ExportInterface struct {
	abis  ABIProvider
	files FileWriter
	log   *slog.Logger
}

// NewExportInterface creates a new ExportInterface use case
func NewExportInterface(abis ABIProvider, files FileWriter, log *slog.Logger) *ExportInterface {
	return &ExportInterface{
		abis:  abis,
		files: files,
		log:   log.With("component", "interface"),
	}
}

// Run renders the interface in the requested format
func (uc *ExportInterface) Run(ctx context.Context, params ExportInterfaceParams) (*ExportInterfaceResult, error) {
	parsed, err := uc.abis.FactoryABI()
	if err != nil {
		return nil, err
	}

	format := params.Format
	if format == "" {
		format = FormatSolidity
	}

	structs, err := collectStructs(parsed)
	if err != nil {
		return nil, err
	}

	var content string
	switch format {
	case FormatSolidity:
		content = renderSolidity(parsed, structs)
	case FormatEthers:
		content, err = renderHumanReadable(parsed)
	case FormatViem:
		content, err = renderViem(parsed)
	case FormatJSON:
		content, err = renderJSON(parsed)
	case FormatYAML:
		content, err = renderYAML(parsed)
	default:
		return nil, fmt.Errorf("unknown interface format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s interface: %w", format, err)
	}

	result := &ExportInterfaceResult{Format: format, Content: content}
	if params.Output != "" {
		if err := uc.files.WriteFile(ctx, params.Output, []byte(content)); err != nil {
			return nil, fmt.Errorf("failed to write interface: %w", err)
		}
		result.Path = params.Output
		uc.log.Debug("wrote interface", "format", format, "path", params.Output)
	}
	return result, nil
}

// abiEntry is one element of a JSON ABI
type abiEntry struct {
	Type            string      `json:"type" yaml:"type"`
	Name            string      `json:"name" yaml:"name"`
	Inputs          []abiParam  `json:"inputs" yaml:"inputs"`
	Outputs         *[]abiParam `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	StateMutability string      `json:"stateMutability,omitempty" yaml:"stateMutability,omitempty"`
	Anonymous       *bool       `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
}

type abiParam struct {
	Name         string     `json:"name" yaml:"name"`
	Type         string     `json:"type" yaml:"type"`
	Indexed      *bool      `json:"indexed,omitempty" yaml:"indexed,omitempty"`
	InternalType string     `json:"internalType" yaml:"internalType"`
	Components   []abiParam `json:"components,omitempty" yaml:"components,omitempty"`
}

func sortedMethods(parsed *abi.ABI) []abi.Method {
	methods := lo.Values(parsed.Methods)
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].RawName != methods[j].RawName {
			return methods[i].RawName < methods[j].RawName
		}
		return methods[i].Name < methods[j].Name
	})
	return methods
}

func sortedEvents(parsed *abi.ABI) []abi.Event {
	events := lo.Values(parsed.Events)
	sort.Slice(events, func(i, j int) bool {
		if events[i].RawName != events[j].RawName {
			return events[i].RawName < events[j].RawName
		}
		return events[i].Name < events[j].Name
	})
	return events
}

func sortedErrors(parsed *abi.ABI) []abi.Error {
	errs := lo.Values(parsed.Errors)
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Name < errs[j].Name
	})
	return errs
}

// structName is the Solidity name of a tuple type, without the interface
// qualifier. collectStructs rejects tuples without one.
func structName(t abi.Type) string {
	return strings.TrimPrefix(t.TupleRawName, InterfaceName)
}

func jsonType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		return "tuple"
	case abi.SliceTy:
		return jsonType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", jsonType(*t.Elem), t.Size)
	default:
		return t.String()
	}
}

func internalType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		return "struct " + InterfaceName + "." + structName(t)
	case abi.SliceTy:
		return internalType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", internalType(*t.Elem), t.Size)
	default:
		return t.String()
	}
}

func components(t abi.Type) []abiParam {
	switch t.T {
	case abi.TupleTy:
		params := make([]abiParam, len(t.TupleElems))
		for i, elem := range t.TupleElems {
			params[i] = abiParam{
				Name:         t.TupleRawNames[i],
				Type:         jsonType(*elem),
				InternalType: internalType(*elem),
				Components:   components(*elem),
			}
		}
		return params
	case abi.SliceTy, abi.ArrayTy:
		return components(*t.Elem)
	default:
		return nil
	}
}

func toParams(args abi.Arguments, withIndexed bool) []abiParam {
	return lo.Map(args, func(arg abi.Argument, _ int) abiParam {
		param := abiParam{
			Name:         arg.Name,
			Type:         jsonType(arg.Type),
			InternalType: internalType(arg.Type),
			Components:   components(arg.Type),
		}
		if withIndexed {
			param.Indexed = lo.ToPtr(arg.Indexed)
		}
		return param
	})
}

// abiEntries lists functions, events then errors, each sorted by name
func abiEntries(parsed *abi.ABI) []abiEntry {
	var entries []abiEntry
	for _, m := range sortedMethods(parsed) {
		outputs := toParams(m.Outputs, false)
		entries = append(entries, abiEntry{
			Type:            "function",
			Name:            m.RawName,
			Inputs:          toParams(m.Inputs, false),
			Outputs:         &outputs,
			StateMutability: m.StateMutability,
		})
	}
	for _, e := range sortedEvents(parsed) {
		entries = append(entries, abiEntry{
			Type:      "event",
			Name:      e.RawName,
			Inputs:    toParams(e.Inputs, true),
			Anonymous: lo.ToPtr(e.Anonymous),
		})
	}
	for _, e := range sortedErrors(parsed) {
		entries = append(entries, abiEntry{
			Type:   "error",
			Name:   e.Name,
			Inputs: toParams(e.Inputs, false),
		})
	}
	return entries
}

func renderJSON(parsed *abi.ABI) (string, error) {
	data, err := json.MarshalIndent(abiEntries(parsed), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func renderYAML(parsed *abi.ABI) (string, error) {
	data, err := yaml.Marshal(abiEntries(parsed))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderViem(parsed *abi.ABI) (string, error) {
	data, err := json.MarshalIndent(abiEntries(parsed), "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("export const xFactoryAbi = %s as const;\n", data), nil
}

func humanType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		return "tuple(" + strings.Join(lo.Map(t.TupleElems, func(elem *abi.Type, _ int) string {
			return humanType(*elem)
		}), ",") + ")"
	case abi.SliceTy:
		return humanType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", humanType(*t.Elem), t.Size)
	default:
		return t.String()
	}
}

func humanArgs(args abi.Arguments) string {
	return strings.Join(lo.Map(args, func(arg abi.Argument, _ int) string {
		if arg.Indexed {
			return humanType(arg.Type) + " indexed"
		}
		return humanType(arg.Type)
	}), ",")
}

// renderHumanReadable renders the ethers.js human-readable ABI: errors,
// events then functions
func renderHumanReadable(parsed *abi.ABI) (string, error) {
	var lines []string
	for _, e := range sortedErrors(parsed) {
		lines = append(lines, fmt.Sprintf("error %s(%s)", e.Name, humanArgs(e.Inputs)))
	}
	for _, e := range sortedEvents(parsed) {
		lines = append(lines, fmt.Sprintf("event %s(%s)", e.RawName, humanArgs(e.Inputs)))
	}
	for _, m := range sortedMethods(parsed) {
		line := fmt.Sprintf("function %s(%s)", m.RawName, humanArgs(m.Inputs))
		if m.StateMutability != "" && m.StateMutability != "nonpayable" {
			line += " " + m.StateMutability
		}
		if len(m.Outputs) > 0 {
			line += fmt.Sprintf(" returns (%s)", humanArgs(m.Outputs))
		}
		lines = append(lines, line)
	}

	data, err := json.MarshalIndent(lines, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func solidityType(t abi.Type) string {
	switch t.T {
	case abi.TupleTy:
		return structName(t)
	case abi.SliceTy:
		return solidityType(*t.Elem) + "[]"
	case abi.ArrayTy:
		return fmt.Sprintf("%s[%d]", solidityType(*t.Elem), t.Size)
	default:
		return t.String()
	}
}

func solidityParam(arg abi.Argument, location bool) string {
	parts := []string{solidityType(arg.Type)}
	if arg.Indexed {
		parts = append(parts, "indexed")
	}
	switch arg.Type.T {
	case abi.BytesTy, abi.StringTy, abi.TupleTy, abi.SliceTy, abi.ArrayTy:
		if location {
			parts = append(parts, "memory")
		}
	}
	if arg.Name != "" {
		parts = append(parts, arg.Name)
	}
	return strings.Join(parts, " ")
}

func solidityParams(args abi.Arguments, location bool) string {
	return strings.Join(lo.Map(args, func(arg abi.Argument, _ int) string {
		return solidityParam(arg, location)
	}), ", ")
}

// collectStructs finds every tuple type used by the interface. Every tuple
// must carry a "struct <Interface>.<Name>" internal type.
func collectStructs(parsed *abi.ABI) ([]abi.Type, error) {
	found := make(map[string]abi.Type)
	var unnamed []string
	var visit func(t abi.Type)
	visit = func(t abi.Type) {
		switch t.T {
		case abi.TupleTy:
			name := structName(t)
			if name == "" {
				unnamed = append(unnamed, t.String())
				return
			}
			found[name] = t
			for _, elem := range t.TupleElems {
				visit(*elem)
			}
		case abi.SliceTy, abi.ArrayTy:
			visit(*t.Elem)
		}
	}
	for _, m := range parsed.Methods {
		for _, arg := range slices.Concat(m.Inputs, m.Outputs) {
			visit(arg.Type)
		}
	}
	for _, e := range parsed.Events {
		for _, arg := range e.Inputs {
			visit(arg.Type)
		}
	}
	for _, e := range parsed.Errors {
		for _, arg := range e.Inputs {
			visit(arg.Type)
		}
	}

	if len(unnamed) > 0 {
		return nil, fmt.Errorf("tuple types without a struct name: %s", strings.Join(lo.Uniq(unnamed), ", "))
	}

	structs := lo.Values(found)
	sort.Slice(structs, func(i, j int) bool {
		return structName(structs[i]) < structName(structs[j])
	})
	return structs, nil
}

func renderSolidity(parsed *abi.ABI, structs []abi.Type) string {
	var b strings.Builder
	b.WriteString("// SPDX-License-Identifier: AGPL-3.0-only\n")
	b.WriteString("pragma solidity ^0.8.4;\n\n")
	fmt.Fprintf(&b, "interface %s {\n", InterfaceName)

	for _, t := range structs {
		fmt.Fprintf(&b, "    struct %s {\n", structName(t))
		for i, elem := range t.TupleElems {
			fmt.Fprintf(&b, "        %s %s;\n", solidityType(*elem), t.TupleRawNames[i])
		}
		b.WriteString("    }\n\n")
	}

	for _, e := range sortedEvents(parsed) {
		fmt.Fprintf(&b, "    event %s(%s);\n", e.RawName, solidityParams(e.Inputs, false))
	}
	b.WriteString("\n")

	for _, e := range sortedErrors(parsed) {
		fmt.Fprintf(&b, "    error %s(%s);\n", e.Name, solidityParams(e.Inputs, false))
	}
	b.WriteString("\n")

	methods := sortedMethods(parsed)
	for i, m := range methods {
		fmt.Fprintf(&b, "    function %s(%s) external", m.RawName, solidityParams(m.Inputs, true))
		if m.StateMutability != "" && m.StateMutability != "nonpayable" {
			b.WriteString(" " + m.StateMutability)
		}
		if len(m.Outputs) > 0 {
			fmt.Fprintf(&b, " returns (%s)", solidityParams(m.Outputs, true))
		}
		b.WriteString(";\n")
		if i < len(methods)-1 && methods[i+1].RawName != m.RawName {
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}
