// Package util provides statistics helpers shared by the store adapters.
//
// The helpers support the metadata reporting of the adapters: DistributionStats
// summarizes how records spread over tables, SizeHistogram estimates record
// sizes from sampled writes without retaining the samples themselves.
package util
