// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package system

// NamespacedFields returns a variadic slice of key/value pairs suitable for
// passing to SugaredLogger.With or Infow/Errorw calls. If namespace is empty
// it will only include the "name" key; otherwise it includes both "name" and
// "namespace".
func NamespacedFields(name, namespace string) []interface{} {
	if namespace == "" {
		return []interface{}{"name", name}
	}
	return []interface{}{"name", name, "namespace", namespace}
}

// ElectionFields returns the standard log fields for election-related
// messages so identity and role are spelled the same everywhere.
func ElectionFields(identity string, leader bool) []interface{} {
	return []interface{}{"identity", identity, "leader", leader}
}
