package model

// RawRow is one record from a broker export, field-aligned with the file's
// header row. Values are untrimmed source strings; arbitrary noise (currency
// symbols, thousands separators, blank cells) is expected.
type RawRow []string
