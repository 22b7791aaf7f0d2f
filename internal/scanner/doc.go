// Package scanner turns a filesystem tree or an explicit file list into a
// sequence of batch jobs. Discovery filters to supported media types,
// partitions the survivors into fixed-size chunks in encounter order, and
// submits one job per chunk to the batch processor.
package scanner
