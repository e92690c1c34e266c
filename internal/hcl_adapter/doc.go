// Package hcl_adapter reads descriptor files written in HCL:
//
//	resource "topic" "orders" {
//	  partitions = 3
//	}
//
//	resource "topic" "audit" {
//	  upstream = [topic.orders]
//	}
//
//	extension "kafka" {
//	  default_partitions = 6
//	}
//
// Resource attributes become the descriptor's JSON payload. A traversal such
// as topic.orders evaluates to the reference string "topic:orders", so HCL
// files can name other resources without quoting. A small set of string and
// collection functions is available in expressions.
package hcl_adapter
