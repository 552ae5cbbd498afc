// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package protocolfeature tracks which builtin chain behaviors a node has
// compiled in (the Catalog), which of those have actually been turned on
// and at what block (the Manager's activation log), and lets callers walk
// that log by block number or activation order (Cursor).
package protocolfeature
