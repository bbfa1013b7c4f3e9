// Package validator validates request structs through struct tags and
// reports failures as a field to message map.
package validator
