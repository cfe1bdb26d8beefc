// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package plugin binds untyped plugin config documents to typed plugin
// constructors. It is reflect based: plugin implementations register
// constructors under canonical identifiers in package init funcs, and hosts
// load instances of required capability by document like:
//
//	type: retry
//	config:
//	  attempts: 3
//
// Type is short built-in alias or canonical identifier. Built-in aliases are
// resolved by Resolve. Config is plugin options document; it is optional.
// Host may inject options overlay, that replaces document entries with same keys.
//
// Type expectations.
// Registered constructor should have type func(*config.View) (<pluginImpl>[, error]).
// Constructor receives view over final options document, coupled with
// <pluginImpl> type and decode hooks registered with constructor.
// Returned instance is checked to implement requested capability interface
// at load time, so one implementation can be loaded as different capabilities.
//
// All load failures are *svcerr.Error with type and plugin_type diagnostic fields.
package plugin
