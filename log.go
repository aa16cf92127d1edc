// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package noita

import "github.com/sirupsen/logrus"

// logger receives decode warnings and debug traces.
var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used by the package. Passing nil restores the
// logrus standard logger. It should be called before decoding starts.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger = l
}
