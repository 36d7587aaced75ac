// Package license maps free-form license text to a canonical license name.
//
// Classification is a linear scan over an ordered [RuleSet]: the first rule
// whose pattern occurs in the text (exact, case-sensitive substring match)
// decides the name. Text matching no rule classifies as [Other].
//
// Order matters: BSD 3-clause text contains the BSD 2-clause wording and LGPL
// text refers to the GPL, so the more specific rules come first.
package license

import "strings"

// Other is returned when no rule matches. GitHub uses the same name for
// licenses it could not identify, which is what triggers classification.
const Other = "Other"

// Rule maps a substring pattern to a canonical license name.
type Rule struct {
	Pattern string `toml:"pattern" yaml:"pattern" json:"pattern"`
	Name    string `toml:"name" yaml:"name" json:"name"`
}

// RuleSet is an ordered list of rules. The zero value classifies everything as [Other].
type RuleSet []Rule

// Classify returns the name of the first rule whose pattern occurs in text,
// or [Other]. It is pure and total.
func Classify(text string, rules RuleSet) string {
	for _, r := range rules {
		if r.Pattern != "" && strings.Contains(text, r.Pattern) {
			return r.Name
		}
	}
	return Other
}

// Classify is shorthand for [Classify](text, rs).
func (rs RuleSet) Classify(text string) string { return Classify(text, rs) }

// DefaultRules returns the built-in rule set.
func DefaultRules() RuleSet {
	return RuleSet{
		{Pattern: "MIT License", Name: "MIT"},
		{Pattern: "Permission is hereby granted, free of charge", Name: "MIT"},
		{Pattern: "Apache License, Version 2.0", Name: "Apache 2"},
		{Pattern: "Apache License\n                           Version 2.0", Name: "Apache 2"},
		{Pattern: "Neither the name of", Name: "BSD 3"},
		{Pattern: "Redistribution and use in source and binary forms", Name: "BSD 2"},
		{Pattern: "GNU LESSER GENERAL PUBLIC LICENSE", Name: "LGPL"},
		{Pattern: "GNU GENERAL PUBLIC LICENSE\n                       Version 3", Name: "GPL 3"},
		{Pattern: "GNU GENERAL PUBLIC LICENSE Version 3", Name: "GPL 3"},
		{Pattern: "GNU GENERAL PUBLIC LICENSE", Name: "GPL 2"},
		{Pattern: "Mozilla Public License Version 2.0", Name: "MPL 2"},
		{Pattern: "Mozilla Public License, version 2.0", Name: "MPL 2"},
		{Pattern: "ISC License", Name: "ISC"},
		{Pattern: "This is free and unencumbered software released into the public domain", Name: "Unlicense"},
	}
}
