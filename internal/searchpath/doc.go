// Package searchpath merges several physical directory trees into one
// logical namespace.
//
// A Registry holds the top-level search roots (the directories in which
// namespaces are looked up) and, per namespace name, a SearchPath: the
// ordered, duplicate-free list of directories contributing modules to that
// namespace. A namespace is established on first use and kept for the
// lifetime of the Registry:
//
//  1. the first root containing a directory named like the namespace becomes
//     the primary directory;
//  2. every other root (and each configured install root) providing the same
//     directory is appended (Extend);
//  3. the nested candidate <primary>/<name> is appended when it exists
//     (MergeNested), so a tree that was moved one level down keeps resolving
//     under the outer name.
//
// Resolution is first match wins:
//
//	reg := searchpath.NewRegistry([]string{projectRoot}, searchpath.Config{Name: "locable", MergeNested: true})
//	dir, err := reg.Resolve("locable.data.chroma")
//
// Nothing in this package touches process-wide state.
package searchpath
