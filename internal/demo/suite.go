package demo

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rickchristie/govner/testdeck/internal/declare"
)

// Files of the sample suite.
const (
	AuthFile     = "tests/auth.go"
	CheckoutFile = "tests/checkout.go"
)

// FailingCheck is the check the sample suite expects to fail.
const FailingCheck = "the order total includes the 10% discount"

// Declare loads the sample suite into reg.
func Declare(reg *declare.Registry) error {
	if err := reg.Load(AuthFile, declareAuth); err != nil {
		return err
	}
	return reg.Load(CheckoutFile, declareCheckout)
}

func logHook(name string) declare.HookFunc {
	return func(ctx context.Context) error {
		log.Debug().Str("hook", name).Msg("hook ran")
		return nil
	}
}

func declareAuth(s *declare.Session) error {
	if err := s.BeforeAll(logHook("seed demo users")); err != nil {
		return err
	}

	err := s.TestWith("signs in with the demo account", declare.Options{URL: "/login", Prompt: "The demo account is demo@example.com / hunter2"},
		func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "enter the demo credentials"); err != nil {
				return err
			}
			if err := a.Act(ctx, "submit the sign in form"); err != nil {
				return err
			}
			return a.Check(ctx, "the dashboard greets the demo user")
		})
	if err != nil {
		return err
	}

	return s.GroupWith("Password reset", declare.Options{URL: "/reset"}, func() error {
		if err := s.BeforeEach(logHook("clear outbox")); err != nil {
			return err
		}
		if err := s.Test("sends a reset email", func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "request a reset for demo@example.com"); err != nil {
				return err
			}
			return a.Check(ctx, "a confirmation banner is shown")
		}); err != nil {
			return err
		}
		return s.Test("rejects an unknown address", func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "request a reset for nobody@example.com"); err != nil {
				return err
			}
			return a.Check(ctx, "an error explains the address is unknown")
		})
	})
}

func declareCheckout(s *declare.Session) error {
	if err := s.AfterAll(logHook("drop demo orders")); err != nil {
		return err
	}

	err := s.GroupWith("Cart", declare.Options{Prompt: "Start every test from an empty cart"}, func() error {
		if err := s.BeforeEach(logHook("empty cart")); err != nil {
			return err
		}
		if err := s.Test("adds an item", func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "add the blue mug to the cart"); err != nil {
				return err
			}
			return a.Check(ctx, "the cart badge shows 1")
		}); err != nil {
			return err
		}
		if err := s.Test("removes an item", func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "add the blue mug to the cart"); err != nil {
				return err
			}
			if err := a.Act(ctx, "remove the blue mug from the cart"); err != nil {
				return err
			}
			return a.Check(ctx, "the cart is empty")
		}); err != nil {
			return err
		}

		return s.GroupWith("Coupons", declare.Options{URL: "/cart"}, func() error {
			return s.Test("applies a discount code", func(ctx context.Context, a declare.Agent) error {
				if err := a.Act(ctx, "add the blue mug to the cart"); err != nil {
					return err
				}
				if err := a.Act(ctx, "apply the code SAVE10"); err != nil {
					return err
				}
				return a.Check(ctx, FailingCheck)
			})
		})
	})
	if err != nil {
		return err
	}

	return s.TestWith("guest checkout", declare.Options{Extra: map[string]any{"viewport": "mobile"}},
		func(ctx context.Context, a declare.Agent) error {
			if err := a.Act(ctx, "add the blue mug to the cart"); err != nil {
				return err
			}
			if err := a.Act(ctx, "check out as a guest"); err != nil {
				return err
			}
			return a.Check(ctx, "the order confirmation page is shown")
		})
}
