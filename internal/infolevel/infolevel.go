// Package infolevel controls how much metadata a crawl retrieves.
//
// Each preset enables a superset of the flags of the one before it:
// minimum, basic, verbose, maximum.
package infolevel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigurationLocked is returned when a locked level is modified.
var ErrConfigurationLocked = errors.New("info level is locked")

// Flag names one optional retrieval.
type Flag int

const (
	RetrieveDatabaseInfo Flag = iota
	RetrieveDriverInfo
	RetrieveAdditionalDatabaseInfo
	RetrieveAdditionalDriverInfo
	RetrieveTables
	RetrieveProcedures
	RetrieveTableColumns
	RetrievePrimaryKeys
	RetrieveColumnDataTypes
	RetrieveUserDefinedColumnDataTypes
	RetrieveProcedureColumns
	RetrieveProcedureDefinitions
	RetrieveForeignKeys
	RetrieveIndexes
	RetrieveCheckConstraints
	RetrieveTriggers
	RetrieveViewDefinitions
	RetrieveTablePrivileges
	RetrieveColumnPrivileges
	RetrieveAdditionalTableAttributes
	RetrieveAdditionalColumnAttributes
	RetrieveWeakAssociations

	flagCount
)

var flagNames = [flagCount]string{
	"retrieve_database_info",
	"retrieve_driver_info",
	"retrieve_additional_database_info",
	"retrieve_additional_driver_info",
	"retrieve_tables",
	"retrieve_procedures",
	"retrieve_table_columns",
	"retrieve_primary_keys",
	"retrieve_column_data_types",
	"retrieve_user_defined_column_data_types",
	"retrieve_procedure_columns",
	"retrieve_procedure_definitions",
	"retrieve_foreign_keys",
	"retrieve_indexes",
	"retrieve_check_constraints",
	"retrieve_triggers",
	"retrieve_view_definitions",
	"retrieve_table_privileges",
	"retrieve_column_privileges",
	"retrieve_additional_table_attributes",
	"retrieve_additional_column_attributes",
	"retrieve_weak_associations",
}

// String returns the configuration name of the flag.
func (f Flag) String() string {
	if f < 0 || f >= flagCount {
		return fmt.Sprintf("Flag(%d)", int(f))
	}
	return flagNames[f]
}

// Flags returns every flag in declaration order.
func Flags() []Flag {
	flags := make([]Flag, flagCount)
	for i := range flags {
		flags[i] = Flag(i)
	}
	return flags
}

// LookupFlag finds a flag by its configuration name.
func LookupFlag(name string) (Flag, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range flagNames {
		if n == name {
			return Flag(f), true
		}
	}
	return 0, false
}

// Level is a set of enabled flags with a tag naming it.
type Level struct {
	tag    string
	flags  [flagCount]bool
	locked bool
}

var (
	minimumFlags = []Flag{
		RetrieveDatabaseInfo,
		RetrieveDriverInfo,
		RetrieveTables,
		RetrieveProcedures,
	}
	basicFlags = []Flag{
		RetrieveTableColumns,
		RetrievePrimaryKeys,
		RetrieveColumnDataTypes,
		RetrieveProcedureColumns,
	}
	verboseFlags = []Flag{
		RetrieveAdditionalDatabaseInfo,
		RetrieveAdditionalDriverInfo,
		RetrieveUserDefinedColumnDataTypes,
		RetrieveProcedureDefinitions,
		RetrieveForeignKeys,
		RetrieveIndexes,
		RetrieveCheckConstraints,
		RetrieveTriggers,
		RetrieveViewDefinitions,
	}
	maximumFlags = []Flag{
		RetrieveTablePrivileges,
		RetrieveColumnPrivileges,
		RetrieveAdditionalTableAttributes,
		RetrieveAdditionalColumnAttributes,
		RetrieveWeakAssociations,
	}
)

func preset(tag string, groups ...[]Flag) *Level {
	l := &Level{tag: tag, locked: true}
	for _, group := range groups {
		for _, f := range group {
			l.flags[f] = true
		}
	}
	return l
}

// Minimum retrieves database info and table and procedure names.
func Minimum() *Level {
	return preset("minimum", minimumFlags)
}

// Basic adds columns, primary keys and data types.
func Basic() *Level {
	return preset("basic", minimumFlags, basicFlags)
}

// Verbose adds foreign keys, indexes and the text of constraints, triggers
// and views.
func Verbose() *Level {
	return preset("verbose", minimumFlags, basicFlags, verboseFlags)
}

// Maximum retrieves everything.
func Maximum() *Level {
	return preset("maximum", minimumFlags, basicFlags, verboseFlags, maximumFlags)
}

// Standard is the level used when none is configured.
func Standard() *Level {
	return Verbose()
}

// Presets returns the presets from smallest to largest.
func Presets() []*Level {
	return []*Level{Minimum(), Basic(), Verbose(), Maximum()}
}

// Parse returns the preset with the given name.
func Parse(name string) (*Level, error) {
	for _, l := range Presets() {
		if strings.EqualFold(l.tag, strings.TrimSpace(name)) {
			return l, nil
		}
	}
	if strings.EqualFold(strings.TrimSpace(name), "standard") {
		return Standard(), nil
	}
	return nil, fmt.Errorf("unknown info level: %q", name)
}

// Custom returns an unlocked copy of base, tagged "custom".
func Custom(base *Level) *Level {
	l := &Level{tag: "custom"}
	if base != nil {
		l.flags = base.flags
	}
	return l
}

// Set enables or disables a flag.
func (l *Level) Set(f Flag, enabled bool) error {
	if l.locked {
		return fmt.Errorf("failed to set %s on %s: %w", f, l.tag, ErrConfigurationLocked)
	}
	if f < 0 || f >= flagCount {
		return fmt.Errorf("unknown flag: %d", int(f))
	}
	l.flags[f] = enabled
	return nil
}

// Lock prevents further changes.
func (l *Level) Lock() {
	l.locked = true
}

// Locked reports whether the level can no longer be changed.
func (l *Level) Locked() bool {
	return l.locked
}

// Is reports whether a flag is enabled.
func (l *Level) Is(f Flag) bool {
	if f < 0 || f >= flagCount {
		return false
	}
	return l.flags[f]
}

// Tag returns the preset name, or "custom".
func (l *Level) Tag() string {
	return l.tag
}

// Enabled returns the enabled flags in declaration order.
func (l *Level) Enabled() []Flag {
	var enabled []Flag
	for _, f := range Flags() {
		if l.flags[f] {
			enabled = append(enabled, f)
		}
	}
	return enabled
}

// String returns the tag.
func (l *Level) String() string {
	return l.tag
}
