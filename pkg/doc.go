// Package pkg provides the libraries behind drawbridge.
//
// # Overview
//
// Drawbridge keeps cloud resources closed until they are needed. Security
// groups and instances carrying the drawbridge tag are opened, closed,
// started, and stopped on request, and instance hostnames follow their
// public addresses. The pkg directory is organized into four areas:
//
//  1. Vocabulary: [iprules] (ingress rules, protocols, aliases), [dns]
//     (targets and authoritative zone lookup), [errors] (coded errors)
//  2. Providers: [cloud] with [cloud/aws] and [cloud/mem], [dns/aws] and
//     [dns/mem], [checkip] for the caller's own address
//  3. Orchestration: [dispatch] reconciles commands against providers
//  4. Infrastructure: [config], [cache], [history], [httputil],
//     [observability], [buildinfo]
//
// # Architecture
//
// The typical flow of a command:
//
//	CLI flags + config file
//	         ↓
//	    [dispatch] Command (Open, Close, Start, Stop)
//	         ↓
//	    [cloud] firewalls / instances   →   [dns] zone bindings
//	         ↓
//	    [dispatch] Report   →   [history] run log, [observability] metrics
//
// # Quick Start
//
//	cfg, _ := cloudaws.LoadConfig(ctx, "eu-central-1", "")
//	d := dispatch.New(
//	    cloudaws.New(cfg, cloudaws.Options{}),
//	    dnsaws.New(cfg, dnsaws.Options{}),
//	    logger,
//	)
//	report, err := d.Dispatch(ctx, dispatch.Start{Names: []string{"devbox"}})
//
// The in-memory providers implement the same interfaces and are used by the
// tests of every layer above them.
package pkg
