// Package views renders the page and the htmx fragments.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/example/htmx-todo-demo/domain/todo"
	"github.com/example/htmx-todo-demo/domain/user"
)

// Selectors of the elements error fragments are swapped into.
const (
	AuthMessageTarget = "#auth-message"
	TodoMessageTarget = "#todo-message"
)

// errorSwapScript lets htmx swap error responses that name their own target.
const errorSwapScript = `<script>document.addEventListener("htmx:beforeSwap", function (event) {
  if (event.detail.xhr.status >= 400 && event.detail.xhr.getResponseHeader("HX-Retarget")) {
    event.detail.shouldSwap = true;
    event.detail.isError = false;
  }
});</script>`

// PageData is the state behind the index page.
type PageData struct {
	User   *user.User
	Todos  []todo.Todo
	Notice string
}

// Page renders the full document.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.print(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		ew.print(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		ew.print(`<title>Todos</title>`)
		ew.print(`<script src="https://unpkg.com/htmx.org@1.9.12"></script>`)
		ew.print(errorSwapScript)
		ew.print(`</head><body><main>`)
		if data.Notice != "" {
			ew.printf(`<p class="notice">%s</p>`, templ.EscapeString(data.Notice))
		}
		if ew.err != nil {
			return ew.err
		}

		if data.User == nil {
			if err := AuthForms().Render(ctx, w); err != nil {
				return err
			}
		} else {
			ew.printf(`<header><span>Signed in as <strong>%s</strong></span> `, templ.EscapeString(data.User.Username))
			ew.print(`<button hx-post="/auth/logout">Log out</button></header>`)
			ew.print(`<form hx-post="/todos" hx-target="#todo-list" hx-swap="beforeend" hx-encoding="multipart/form-data" hx-on::after-request="this.reset()">`)
			ew.print(`<input name="todo" placeholder="What needs doing?" required> <input type="file" name="file"> <button type="submit">Add</button></form>`)
			ew.print(`<div id="todo-message"></div>`)
			if ew.err != nil {
				return ew.err
			}
			if err := TodoList(data.Todos).Render(ctx, w); err != nil {
				return err
			}
		}

		ew.print(`</main></body></html>`)
		return ew.err
	})
}

// AuthForms renders the login and signup forms.
func AuthForms() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.print(`<section id="auth">`)
		ew.print(`<form hx-post="/auth/login" hx-target="#auth-message"><h2>Log in</h2>`)
		ew.print(`<input name="username" placeholder="Username" required> `)
		ew.print(`<input name="password" type="password" placeholder="Password" required> `)
		ew.print(`<button type="submit">Log in</button></form>`)
		ew.print(`<form hx-post="/auth/signup" hx-target="#auth-message"><h2>Sign up</h2>`)
		ew.print(`<input name="username" placeholder="Username" required> `)
		ew.print(`<input name="password" type="password" placeholder="Password (8+ characters)" minlength="8" required> `)
		ew.print(`<button type="submit">Sign up</button></form>`)
		ew.print(`<div id="auth-message"></div></section>`)
		return ew.err
	})
}

// TodoList renders the list container with every item.
func TodoList(todos []todo.Todo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<ul id="todo-list">`); err != nil {
			return err
		}
		for i := range todos {
			if err := TodoItem(&todos[i]).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ul>`)
		return err
	})
}

// TodoItem renders one list row.
func TodoItem(t *todo.Todo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		id := templ.EscapeString(t.ID)
		class := "todo"
		checked := ""
		if t.Done {
			class = "todo done"
			checked = " checked"
		}

		ew := &errWriter{w: w}
		ew.printf(`<li id="todo-%s" class="%s">`, id, class)
		ew.printf(`<input type="checkbox"%s hx-post="/todos/%s/toggle" hx-target="#todo-%s" hx-swap="outerHTML"> `, checked, id, id)
		ew.printf(`<span class="title">%s</span>`, templ.EscapeString(t.Title))
		if t.HasAttachment() {
			ew.printf(` <span class="attachment">%s</span>`, templ.EscapeString(t.FileName))
		}
		ew.printf(` <button hx-get="/todos/%s/edit" hx-target="#todo-%s" hx-swap="outerHTML">Edit</button>`, id, id)
		ew.printf(` <button hx-delete="/todos/%s" hx-target="#todo-%s" hx-swap="outerHTML">Delete</button>`, id, id)
		ew.print(`</li>`)
		return ew.err
	})
}

// TodoEditForm renders the inline edit form that replaces a row.
func TodoEditForm(t *todo.Todo) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		id := templ.EscapeString(t.ID)

		ew := &errWriter{w: w}
		ew.printf(`<li id="todo-%s" class="todo editing">`, id)
		ew.printf(`<form hx-put="/todos/%s" hx-target="#todo-%s" hx-swap="outerHTML">`, id, id)
		ew.printf(`<input name="title" value="%s" required> `, templ.EscapeString(t.Title))
		ew.print(`<button type="submit">Save</button></form></li>`)
		return ew.err
	})
}

// Message renders a short status line for htmx targets.
func Message(kind, text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<p class="message %s">%s</p>`, templ.EscapeString(kind), templ.EscapeString(text))
		return err
	})
}

// errWriter keeps the first write error so markup can be emitted without
// checking every call.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
