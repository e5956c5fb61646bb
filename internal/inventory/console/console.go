package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/view"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/workflow"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

const help = `Commands:
  list                 reload the inventory table
  filter [type]        show only items of a type (no type shows all)
  add                  add an item
  edit <item-id>       edit an item
  delete <item-id>     delete an item and its cases
  case <item-id>       record purchased cases
  cases <item-id>      show the case history of an item
  use <case-id>        mark a case entry of the open history used
  rmcase <case-id>     delete a case entry of the open history
  scan                 capture a UPC and add an item for it
  help                 show this help
  quit                 exit
At a field prompt press enter to keep the value in brackets or type - to clear it.
`

// Console is the interactive terminal front end
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	model    *view.Model
	ctrl     *workflow.Controller
	prompt   *Prompter
	renderer *Renderer
	logger   *logger.Logger
}

// New creates a console. The model is expected to render through renderer.
func New(in *bufio.Reader, out io.Writer, model *view.Model, ctrl *workflow.Controller, renderer *Renderer, log *logger.Logger) *Console {
	return &Console{
		in:       in,
		out:      out,
		model:    model,
		ctrl:     ctrl,
		prompt:   NewPrompter(in, out),
		renderer: renderer,
		logger:   log.WithComponent("console"),
	}
}

// Run shows the inventory and executes commands until quit, end of input
// or cancellation of ctx
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Loading inventory data...")
	c.model.Reload(ctx)
	fmt.Fprintln(c.out, `Type "help" for commands.`)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(c.out, "> ")
		line, err := c.in.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}

		if quit := c.Execute(ctx, line); quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the console should exit
func (c *Console) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	var err error
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		io.WriteString(c.out, help)
	case "list", "ls":
		c.model.Reload(ctx)
	case "filter":
		c.model.SetFilter(ctx, strings.Join(args, " "))
	case "add":
		c.ctrl.OpenItemForCreate()
		err = c.fillItem(ctx)
	case "edit":
		err = c.withItem(ctx, args, func(item domain.Item) error {
			c.ctrl.OpenItemForEdit(ctx, item)
			c.ctrl.Item.WaitPackaging()
			return c.fillItem(ctx)
		})
	case "delete", "rm":
		err = c.withItem(ctx, args, func(item domain.Item) error {
			ok, err := c.model.DeleteItem(ctx, item, c.prompt)
			if err == nil && !ok {
				fmt.Fprintln(c.out, "not deleted")
			}
			return err
		})
	case "case":
		err = c.withID(args, func(id int64) error {
			c.ctrl.OpenCaseFor(ctx, id)
			return c.fillCase(ctx)
		})
	case "cases", "history":
		err = c.withID(args, func(id int64) error {
			c.ctrl.OpenHistoryFor(ctx, id)
			if c.ctrl.History.State().Loading {
				c.renderer.RenderHistory(c.ctrl.History.State())
			}
			c.ctrl.History.Wait()
			c.renderer.RenderHistory(c.ctrl.History.State())
			return nil
		})
	case "use":
		err = c.withID(args, func(id int64) error {
			if err := c.ctrl.History.MarkUsed(ctx, id, c.prompt); err != nil {
				return err
			}
			c.renderer.RenderHistory(c.ctrl.History.State())
			return nil
		})
	case "rmcase":
		err = c.withID(args, func(id int64) error {
			ok, err := c.ctrl.History.Delete(ctx, id, c.prompt)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(c.out, "not deleted")
				return nil
			}
			c.renderer.RenderHistory(c.ctrl.History.State())
			return nil
		})
	case "scan":
		var upc string
		upc, err = c.ctrl.Scan(ctx)
		if err == nil {
			fmt.Fprintf(c.out, "Captured UPC %s\n", upc)
			err = c.fillItem(ctx)
		}
	default:
		fmt.Fprintf(c.out, "unknown command %q, type help\n", cmd)
	}

	if err != nil {
		c.renderer.RenderError(err)
	}
	return false
}

func (c *Console) withID(args []string, fn func(id int64) error) error {
	if len(args) != 1 {
		return errors.Invalid("id", "expected exactly one id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return errors.Invalid("id", fmt.Sprintf("%q is not an id", args[0]))
	}
	return fn(id)
}

// withItem resolves an item id, including items hidden by the filter
func (c *Console) withItem(ctx context.Context, args []string, fn func(item domain.Item) error) error {
	return c.withID(args, func(id int64) error {
		item, err := c.model.FindItem(ctx, id)
		if err != nil {
			return err
		}
		return fn(item)
	})
}

// fillItem walks the item form field by field and submits it. A failed
// submit keeps the dialog open and offers another attempt with the typed
// values as defaults.
func (c *Console) fillItem(ctx context.Context) error {
	dialog := c.ctrl.Item
	fmt.Fprintln(c.out, dialog.State().Title)

	for {
		form := dialog.State().Form
		if err := c.askItemFields(ctx, &form); err != nil {
			dialog.Cancel()
			return err
		}
		dialog.SetForm(form)

		err := dialog.Submit(ctx)
		if err == nil {
			fmt.Fprintln(c.out, "saved")
			return nil
		}
		c.renderer.RenderError(err)
		if retry, _ := c.prompt.Confirm(ctx, "Try again?"); !retry {
			dialog.Cancel()
			return nil
		}
	}
}

func (c *Console) askItemFields(ctx context.Context, f *workflow.ItemForm) error {
	text := []struct {
		label string
		value *string
	}{
		{"UPC", &f.UPC},
		{"Inventory code", &f.InventoryCode},
		{"Name", &f.Name},
		{"Brand", &f.Brand},
		{"Type", &f.Type},
		{"Capacity", &f.Capacity},
		{"Items per case", &f.ItemsPerCase},
		{"Cases per box", &f.CasesPerBox},
	}
	for _, field := range text {
		v, err := c.prompt.Field(ctx, field.label, *field.value)
		if err != nil {
			return err
		}
		*field.value = v
	}

	enabled, err := c.prompt.Flag(ctx, "Stock thresholds enabled", f.ThresholdEnabled)
	if err != nil {
		return err
	}
	f.ThresholdEnabled = enabled

	thresholds := []struct {
		label string
		value *string
	}{
		{"High stock threshold", &f.HighStockThreshold},
		{"Regular stock threshold", &f.RegularStockThreshold},
		{"Low stock threshold", &f.LowStockThreshold},
	}
	for _, field := range thresholds {
		v, err := c.prompt.Field(ctx, field.label, *field.value)
		if err != nil {
			return err
		}
		*field.value = v
	}
	return nil
}

// fillCase shows the item selector, asks the case fields and submits
func (c *Console) fillCase(ctx context.Context) error {
	dialog := c.ctrl.Case
	fmt.Fprintln(c.out, "Add Cases")
	c.renderer.RenderOptions(dialog.State())

	for {
		form := dialog.State().Form
		for _, field := range []struct {
			label string
			value *string
		}{
			{"Item", &form.ItemID},
			{"Quantity", &form.Quantity},
			{"Purchase date (YYYY-MM-DD, blank for today)", &form.PurchaseDate},
		} {
			v, err := c.prompt.Field(ctx, field.label, *field.value)
			if err != nil {
				dialog.Cancel()
				return err
			}
			*field.value = v
		}
		dialog.SetForm(form)

		err := dialog.Submit(ctx)
		if err == nil {
			fmt.Fprintln(c.out, "saved")
			return nil
		}
		c.renderer.RenderError(err)
		if retry, _ := c.prompt.Confirm(ctx, "Try again?"); !retry {
			dialog.Cancel()
			return nil
		}
	}
}
