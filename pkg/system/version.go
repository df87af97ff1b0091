// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

// Version is the build version, overridden at link time via
// -ldflags "-X github.com/telekom/k8s-leaselock/pkg/system.Version=...".
var Version = "0.0.0-dev"
