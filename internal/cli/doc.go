// Package cli is the extreg command line. It maps flags, environment
// variables and an optional config file onto app.Config with viper, runs the
// requested command and translates failures into process exit codes.
package cli
