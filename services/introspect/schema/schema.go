// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema renders resolved descriptors into their portable form.
//
// Description:
//
//	The From* functions are pure structural mappings from scanner
//	descriptors to plain tagged structs. Member maps keep declaration
//	order, so the same sources always serialize to the same bytes.
package schema

import (
	"github.com/AleutianAI/introspect/services/introspect/module"
	"github.com/AleutianAI/introspect/services/introspect/ordered"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// SchemaVersion is the version of the serialized format.
// Increment when the format changes in a breaking way.
const SchemaVersion = "1.0"

// Module is the serializable form of a resolved module.
type Module struct {
	SchemaVersion string                `json:"schemaVersion" yaml:"schemaVersion"`
	Objects       *ordered.Map[*Object] `json:"objects" yaml:"objects"`
	Enums         *ordered.Map[*Enum]   `json:"enums,omitempty" yaml:"enums,omitempty"`
}

// Object is the serializable form of an exposed class.
//
// Constructor is null when the class declares none.
type Object struct {
	Name        string                  `json:"name" yaml:"name"`
	Description string                  `json:"description" yaml:"description"`
	Constructor *Constructor            `json:"constructor" yaml:"constructor"`
	Methods     *ordered.Map[*Function] `json:"methods" yaml:"methods"`
	Properties  *ordered.Map[*Property] `json:"properties" yaml:"properties"`
}

// Function is the serializable form of an exposed method.
type Function struct {
	Name        string      `json:"name" yaml:"name"`
	Alias       string      `json:"alias,omitempty" yaml:"alias,omitempty"`
	Description string      `json:"description" yaml:"description"`
	Args        []*Argument `json:"args" yaml:"args"`
	ReturnType  *TypeRef    `json:"returnType" yaml:"returnType"`
}

// Constructor is the serializable form of a class constructor.
type Constructor struct {
	Args []*Argument `json:"args" yaml:"args"`
}

// Argument is the serializable form of a parameter.
type Argument struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Type         *TypeRef `json:"type" yaml:"type"`
	IsOptional   bool     `json:"isOptional" yaml:"isOptional"`
	IsVariadic   bool     `json:"isVariadic" yaml:"isVariadic"`
	DefaultValue string   `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// Property is the serializable form of a class property.
type Property struct {
	Name        string   `json:"name" yaml:"name"`
	Alias       string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Type        *TypeRef `json:"type" yaml:"type"`
	IsExposed   bool     `json:"isExposed" yaml:"isExposed"`
}

// TypeRef is the serializable form of a type reference.
//
// Name is set for object and enum links and names the target descriptor.
type TypeRef struct {
	Kind     scanner.TypeKind `json:"kind" yaml:"kind"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Of       *TypeRef         `json:"of,omitempty" yaml:"of,omitempty"`
	Optional bool             `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Enum is the serializable form of an enum.
type Enum struct {
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description" yaml:"description"`
	Values      *ordered.Map[*EnumValue] `json:"values" yaml:"values"`
}

// EnumValue is the serializable form of an enum member.
type EnumValue struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// FromModule converts a resolved module. Objects keep build order, enums first-reference order.
func FromModule(m *module.Module) *Module {
	out := &Module{
		SchemaVersion: SchemaVersion,
		Objects:       ordered.New[*Object](),
	}
	for _, obj := range m.Objects() {
		out.Objects.Set(obj.Name, FromObject(obj))
	}
	if enums := m.Enums(); len(enums) > 0 {
		out.Enums = ordered.New[*Enum]()
		for _, e := range enums {
			out.Enums.Set(e.Name, FromEnum(e))
		}
	}
	return out
}

// FromObject converts an object descriptor.
func FromObject(obj *scanner.Object) *Object {
	out := &Object{
		Name:        obj.Name,
		Description: obj.Description,
		Constructor: FromConstructor(obj.Constructor),
		Methods:     ordered.New[*Function](),
		Properties:  ordered.New[*Property](),
	}
	for _, key := range obj.Methods.Keys() {
		fn, _ := obj.Methods.Get(key)
		out.Methods.Set(key, FromFunction(fn))
	}
	for _, key := range obj.Properties.Keys() {
		p, _ := obj.Properties.Get(key)
		out.Properties.Set(key, FromProperty(p))
	}
	return out
}

// FromFunction converts a function descriptor.
func FromFunction(fn *scanner.Function) *Function {
	return &Function{
		Name:        fn.Name,
		Alias:       fn.Alias,
		Description: fn.Description,
		Args:        fromArguments(fn.Arguments),
		ReturnType:  FromTypeRef(fn.ReturnType),
	}
}

// FromConstructor converts a constructor descriptor. Nil stays nil.
func FromConstructor(c *scanner.Constructor) *Constructor {
	if c == nil {
		return nil
	}
	return &Constructor{Args: fromArguments(c.Arguments)}
}

// FromProperty converts a property descriptor.
func FromProperty(p *scanner.Property) *Property {
	return &Property{
		Name:        p.Name,
		Alias:       p.Alias,
		Description: p.Description,
		Type:        FromTypeRef(p.Type),
		IsExposed:   p.IsExposed,
	}
}

// FromEnum converts an enum descriptor.
func FromEnum(e *scanner.Enum) *Enum {
	out := &Enum{
		Name:        e.Name,
		Description: e.Description,
		Values:      ordered.New[*EnumValue](),
	}
	for _, v := range e.Values.Values() {
		out.Values.Set(v.Name, &EnumValue{Name: v.Name, Value: v.Value, Description: v.Description})
	}
	return out
}

// FromTypeRef converts a type reference. Scalars carry only their kind.
func FromTypeRef(t *scanner.TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	out := &TypeRef{Kind: t.Kind, Optional: t.Optional}
	switch {
	case t.Kind == scanner.KindList:
		out.Of = FromTypeRef(t.Of)
	case !t.Kind.IsScalar():
		out.Name = t.Name
	}
	return out
}

func fromArguments(args []*scanner.Argument) []*Argument {
	out := make([]*Argument, 0, len(args))
	for _, a := range args {
		out = append(out, &Argument{
			Name:         a.Name,
			Description:  a.Description,
			Type:         FromTypeRef(a.Type),
			IsOptional:   a.IsOptional,
			IsVariadic:   a.IsVariadic,
			DefaultValue: a.DefaultValue,
		})
	}
	return out
}
