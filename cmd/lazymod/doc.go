// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the lazymod command line.
//
// Commands:
//
//	lazymod run <module>      import <module> and run its body
//	lazymod check <module>    classify the import statements of <module>
//	lazymod modules           list the modules visible on the search path
//	lazymod config show       print the effective configuration
//	lazymod config init       write a default configuration file
//	lazymod issues [id]       print the issue catalog
//	lazymod version           print the version
package cmd
