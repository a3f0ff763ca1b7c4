package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/atlanticdynamic/pcstate/internal/config"
	"github.com/atlanticdynamic/pcstate/internal/fancy"
	"github.com/atlanticdynamic/pcstate/internal/logging"
	"github.com/atlanticdynamic/pcstate/internal/metrics"
	"github.com/atlanticdynamic/pcstate/internal/session"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

func newDemoCmd() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run a scripted session against the configured store and print each state change",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file; defaults are used when omitted",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print a summary of the collected metrics when done",
			},
		},
		Action: demoAction,
	}
}

func demoAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()
	if p := cmd.String("config"); p != "" {
		loaded, err := config.NewConfig(p)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	handler := slog.Default().Handler()
	if !cmd.IsSet("log-level") && !cmd.IsSet("log-format") {
		handler = logging.SetupHandler(cfg.Logging.Format.String(), cfg.Logging.Level.String(), logOutput(ctx))
	}

	st, err := openStore(ctx, cfg.Store, handler)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(st); err != nil {
			slog.Default().Warn("Failed to close store", "error", err)
		}
	}()

	w := cmd.Root().Writer
	var reg *prometheus.Registry
	var next metrics.Recorder
	if cmd.Bool("metrics") {
		reg = prometheus.NewRegistry()
		next = metrics.NewPrometheusRecorder(reg)
	}

	d := &demo{
		w:     w,
		store: st,
		opts: []session.Option{
			session.WithLogHandler(handler),
			session.WithRecorder(newPrintRecorder(w, next)),
			session.WithSettings(sessionSettings(cfg.Transaction)),
			session.WithMaxFlushPasses(cfg.Commit.MaxFlushPasses),
			session.WithConcurrency(cfg.Commit.Concurrency),
		},
	}
	fmt.Fprintf(w, "%s\n", fancy.RootStyle.Render(fmt.Sprintf("pcstate demo (%s store)", cfg.Store.Backend)))
	if err := d.run(ctx); err != nil {
		return err
	}

	if reg != nil {
		return printMetrics(w, reg)
	}
	return nil
}

type logOutputKey struct{}

func logOutput(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(logOutputKey{}).(io.Writer); ok {
		return w
	}
	return nil
}

type demo struct {
	w     io.Writer
	store store.Manager
	opts  []session.Option
}

func (d *demo) run(ctx context.Context) error {
	writer, err := session.New(d.store, d.opts...)
	if err != nil {
		return err
	}
	id, err := d.write(ctx, writer)
	d.history(writer)
	if err := errors.Join(err, writer.Close(ctx)); err != nil {
		return err
	}

	reader, err := session.New(d.store, d.opts...)
	if err != nil {
		return err
	}
	err = d.readAndDelete(ctx, reader, id)
	d.history(reader)
	return errors.Join(err, reader.Close(ctx))
}

func (d *demo) step(title string) {
	fmt.Fprintf(d.w, "%s\n", fancy.HeaderStyle.Render(title))
}

func (d *demo) state(sess *session.Session, label string, inst *account) {
	fmt.Fprintf(d.w, "  %s is %s\n", label, fancy.StateText(sess.ObjectState(inst).String()))
}

// write creates an account, rolls back one change, commits another and
// lets an auto-persistent entry disappear at commit.
func (d *demo) write(ctx context.Context, sess *session.Session) (uuid.UUID, error) {
	acct := newAccount("ada", 100, "founder")

	d.step("create account")
	if err := sess.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	sm, err := sess.MakePersistent(ctx, acct)
	if err != nil {
		return uuid.Nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	d.state(sess, "account", acct)

	d.step("update and roll back")
	if err := sess.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := sm.WriteField(ctx, accountBalance, 150); err != nil {
		return uuid.Nil, err
	}
	if err := sess.Rollback(ctx); err != nil {
		return uuid.Nil, err
	}
	d.state(sess, "account", acct)

	d.step("update, flush and commit")
	if err := sess.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := sm.WriteField(ctx, accountBalance, 175); err != nil {
		return uuid.Nil, err
	}
	if err := sess.Flush(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	d.state(sess, "account", acct)

	d.step("auto-persistent audit entry")
	audit := newAccount("audit", 0)
	if err := sess.Begin(ctx); err != nil {
		return uuid.Nil, err
	}
	if _, err := sess.MakeAutoPersistent(ctx, audit); err != nil {
		return uuid.Nil, err
	}
	if err := sess.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	d.state(sess, "audit entry", audit)

	return sm.ObjectID(), nil
}

// readAndDelete loads the account by ID in a fresh session and deletes it.
func (d *demo) readAndDelete(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	d.step("load by id in a new session")
	if err := sess.Begin(ctx); err != nil {
		return err
	}
	sm, err := sess.GetObjectByID(ctx, accountClass, id, false)
	if err != nil {
		return err
	}
	balance, err := sm.ReadField(ctx, accountBalance)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.w, "  balance is %v\n", balance)

	d.step("delete")
	acct, _ := sm.Instance().(*account)
	if err := sess.DeletePersistent(ctx, acct); err != nil {
		return err
	}
	if err := sess.Commit(ctx); err != nil {
		return err
	}
	d.state(sess, "account", acct)
	return nil
}

func (d *demo) history(sess *session.Session) {
	d.step("transactions")
	for _, rec := range sess.History().GetAll() {
		fmt.Fprintf(d.w, "  %s %-11s objects=%d passes=%d\n",
			fancy.TruncateString(rec.ID.String(), 8), rec.Outcome, rec.Objects, rec.FlushPasses)
	}
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", fancy.HeaderStyle.Render("metrics"))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
			total += float64(m.GetHistogram().GetSampleCount())
		}
		fmt.Fprintf(w, "  %s series=%d total=%g\n", mf.GetName(), len(mf.GetMetric()), total)
	}
	return nil
}
