// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TidyList Contributors

//go:build integration

package api_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/tidylist/tidylist/pkg/todoclient"
)

// apiError unwraps a client error into its status and message.
func apiError(err error) *todoclient.APIError {
	var apiErr *todoclient.APIError
	ExpectWithOffset(1, errors.As(err, &apiErr)).To(BeTrue(), "expected an API error, got %v", err)
	return apiErr
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

var _ = Describe("Accounts", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
	})

	It("registers a user and returns its public fields", func() {
		client := todoclient.New(env.baseURL)
		email := uniqueEmail("register")

		user, err := client.Register(ctx, email, "correct horse battery")
		Expect(err).NotTo(HaveOccurred())
		Expect(user.Email).To(Equal(email))
		Expect(uuid.Validate(user.ID)).To(Succeed())
		Expect(user.CreatedAt).NotTo(BeZero())
	})

	It("rejects a duplicate email with a conflict", func() {
		client := todoclient.New(env.baseURL)
		email := uniqueEmail("dup")

		_, err := client.Register(ctx, email, "correct horse battery")
		Expect(err).NotTo(HaveOccurred())

		_, err = client.Register(ctx, email, "another password")
		apiErr := apiError(err)
		Expect(apiErr.Status).To(Equal(http.StatusConflict))
		Expect(apiErr.Message).To(Equal("value already exists"))
	})

	It("treats email as case sensitive", func() {
		client := todoclient.New(env.baseURL)

		_, err := client.Register(ctx, "Case@example.com", "correct horse battery")
		Expect(err).NotTo(HaveOccurred())
		_, err = client.Register(ctx, "case@example.com", "correct horse battery")
		Expect(err).NotTo(HaveOccurred(), "differently cased emails are distinct accounts")
	})

	It("gives the same answer for a wrong password and an unknown email", func() {
		client := todoclient.New(env.baseURL)
		email := uniqueEmail("login")
		_, err := client.Register(ctx, email, "correct horse battery")
		Expect(err).NotTo(HaveOccurred())

		wrongPw := apiError(client.Login(ctx, email, "wrong password"))
		unknown := apiError(client.Login(ctx, uniqueEmail("ghost"), "wrong password"))

		Expect(wrongPw.Status).To(Equal(http.StatusUnauthorized))
		Expect(wrongPw.Message).To(Equal("Email or password is invalid"))
		Expect(unknown.Status).To(Equal(wrongPw.Status))
		Expect(unknown.Message).To(Equal(wrongPw.Message))
	})

	It("lets a user fetch their own profile but not others", func() {
		alice, aliceUser := newAccount(ctx, "alice")
		_, bobUser := newAccount(ctx, "bob")

		got, err := alice.GetUser(ctx, aliceUser.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Email).To(Equal(aliceUser.Email))

		_, err = alice.GetUser(ctx, bobUser.ID)
		apiErr := apiError(err)
		Expect(apiErr.Status).To(Equal(http.StatusNotFound))
		Expect(apiErr.Message).To(Equal("not found"))
	})

	It("rejects requests without a token", func() {
		client := todoclient.New(env.baseURL)
		_, err := client.ListTodos(ctx)
		Expect(errors.Is(err, todoclient.ErrSessionExpired)).To(BeTrue())
	})
})

var _ = Describe("Todos", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupTables(ctx, env.pool)
	})

	It("walks through create, list, patch, and delete", func() {
		client, user := newAccount(ctx, "crud")

		created, err := client.CreateTodo(ctx, todoclient.CreateTodoParams{
			Title:       "Buy milk",
			Description: strPtr("Two liters"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Title).To(Equal("Buy milk"))
		Expect(created.Completed).To(BeFalse())
		Expect(created.OwnerID).To(Equal(user.ID))
		Expect(created.CreatedAt).To(Equal(created.UpdatedAt))

		todos, err := client.ListTodos(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(todos).To(HaveLen(1))

		patched, err := client.UpdateTodo(ctx, created.ID, todoclient.UpdateTodoParams{
			Completed: boolPtr(true),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(patched.Completed).To(BeTrue())
		Expect(patched.Title).To(Equal("Buy milk"), "patch leaves unset fields alone")
		Expect(patched.Description).To(HaveValue(Equal("Two liters")))

		Expect(client.DeleteTodo(ctx, created.ID)).To(Succeed())

		_, err = client.GetTodo(ctx, created.ID)
		Expect(apiError(err).Status).To(Equal(http.StatusNotFound))
	})

	It("lists todos oldest first", func() {
		client, _ := newAccount(ctx, "order")

		for _, title := range []string{"first", "second", "third"} {
			_, err := client.CreateTodo(ctx, todoclient.CreateTodoParams{Title: title})
			Expect(err).NotTo(HaveOccurred())
		}

		todos, err := client.ListTodos(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(todos).To(HaveLen(3))
		Expect(todos[0].Title).To(Equal("first"))
		Expect(todos[2].Title).To(Equal("third"))
	})

	It("rejects a duplicate title for the same owner but not across owners", func() {
		alice, _ := newAccount(ctx, "alice")
		bob, _ := newAccount(ctx, "bob")

		_, err := alice.CreateTodo(ctx, todoclient.CreateTodoParams{Title: "Taxes"})
		Expect(err).NotTo(HaveOccurred())

		_, err = alice.CreateTodo(ctx, todoclient.CreateTodoParams{Title: "Taxes"})
		apiErr := apiError(err)
		Expect(apiErr.Status).To(Equal(http.StatusConflict))
		Expect(apiErr.Message).To(Equal("value already exists"))

		_, err = bob.CreateTodo(ctx, todoclient.CreateTodoParams{Title: "Taxes"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("hides other owners' todos behind not found", func() {
		alice, _ := newAccount(ctx, "alice")
		bob, _ := newAccount(ctx, "bob")

		created, err := alice.CreateTodo(ctx, todoclient.CreateTodoParams{Title: "Secret plan"})
		Expect(err).NotTo(HaveOccurred())

		_, err = bob.GetTodo(ctx, created.ID)
		Expect(apiError(err).Status).To(Equal(http.StatusNotFound))

		_, err = bob.UpdateTodo(ctx, created.ID, todoclient.UpdateTodoParams{Completed: boolPtr(true)})
		Expect(apiError(err).Status).To(Equal(http.StatusNotFound))

		Expect(apiError(bob.DeleteTodo(ctx, created.ID)).Status).To(Equal(http.StatusNotFound))

		todos, err := bob.ListTodos(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(todos).To(BeEmpty())

		// Alice's todo survives untouched.
		got, err := alice.GetTodo(ctx, created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Completed).To(BeFalse())
	})

	It("upserts by id, replacing the whole row when it exists", func() {
		client, _ := newAccount(ctx, "upsert")
		id := uuid.NewString()

		created, err := client.ReplaceTodo(ctx, id, todoclient.ReplaceTodoParams{
			Title:       "Draft report",
			Description: strPtr("First pass"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.ID).To(Equal(id))

		replaced, err := client.ReplaceTodo(ctx, id, todoclient.ReplaceTodoParams{
			Title:     "Final report",
			Completed: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(replaced.Title).To(Equal("Final report"))
		Expect(replaced.Completed).To(BeTrue())
		Expect(replaced.Description).To(BeNil(), "replace clears fields the request omits")
	})

	It("refuses to upsert an id held by another owner", func() {
		alice, _ := newAccount(ctx, "alice")
		bob, _ := newAccount(ctx, "bob")
		id := uuid.NewString()

		_, err := alice.ReplaceTodo(ctx, id, todoclient.ReplaceTodoParams{Title: "Mine"})
		Expect(err).NotTo(HaveOccurred())

		_, err = bob.ReplaceTodo(ctx, id, todoclient.ReplaceTodoParams{Title: "Also mine"})
		apiErr := apiError(err)
		Expect(apiErr.Status).To(Equal(http.StatusConflict))
		Expect(apiErr.Message).To(Equal("value already exists"))
	})

	It("rejects an empty or oversized title", func() {
		client, _ := newAccount(ctx, "validate")

		_, err := client.CreateTodo(ctx, todoclient.CreateTodoParams{Title: "   "})
		Expect(apiError(err).Status).To(Equal(http.StatusBadRequest))

		long := make([]byte, 256)
		for i := range long {
			long[i] = 'x'
		}
		_, err = client.CreateTodo(ctx, todoclient.CreateTodoParams{Title: string(long)})
		Expect(apiError(err).Status).To(Equal(http.StatusBadRequest))
	})

	It("answers a malformed todo id with not found", func() {
		client, _ := newAccount(ctx, "malformed")

		_, err := client.GetTodo(ctx, "not-a-uuid")
		apiErr := apiError(err)
		Expect(apiErr.Status).To(Equal(http.StatusNotFound))
		Expect(apiErr.Message).To(Equal("not found"))
	})
})
