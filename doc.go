// Copyright 2024 refgraph authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package refgraph resolves, dereferences, and bundles JSON/YAML documents
// that contain JSON Reference pointers ($ref).
//
// Given a root document identified by a filesystem path or URL, the package
// produces one of four outputs:
//
//   - Parse returns the root document as a single tree, $ref nodes intact.
//   - Resolve returns a Catalog mapping every transitively reachable
//     document URL to its parsed contents.
//   - Dereference returns a single tree in which every $ref node has been
//     replaced by the fragment it points to, preserving shared sub-trees
//     and recording circular back-edges.
//   - Bundle returns a self-contained tree that inlines every external
//     $ref target under the root and rewrites $ref values to local
//     pointers.
package refgraph
