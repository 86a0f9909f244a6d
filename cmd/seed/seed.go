package main

import (
	"context"
	"fmt"

	"blog/models"
	"blog/repository"

	"github.com/brianvoe/gofakeit/v6"
)

type Options struct {
	Posts       int
	MaxComments int
	MaxLikes    int
}

// Seed creates opts.Posts fake posts through repo and returns their ids in
// creation order. On error the ids created so far are returned with it.
func Seed(ctx context.Context, repo repository.PostRepository, faker *gofakeit.Faker, opts Options) ([]string, error) {
	ids := make([]string, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		post := models.Post{
			Title:   faker.Sentence(5),
			Content: faker.Paragraph(1, 3, 5, "\n"),
			Author:  faker.Name(),
		}
		if err := repo.Create(ctx, &post); err != nil {
			return ids, fmt.Errorf("create post %d: %w", i, err)
		}
		id := post.ID.Hex()
		ids = append(ids, id)

		for c := faker.Number(0, opts.MaxComments); c > 0; c-- {
			comment := models.Comment{Text: faker.Sentence(8), Author: faker.Username()}
			if _, err := repo.AddComment(ctx, id, comment); err != nil {
				return ids, fmt.Errorf("comment on %s: %w", id, err)
			}
		}
		for l := faker.Number(0, opts.MaxLikes); l > 0; l-- {
			if err := repo.Like(ctx, id); err != nil {
				return ids, fmt.Errorf("like %s: %w", id, err)
			}
		}
		if faker.Bool() {
			if err := repo.Dislike(ctx, id); err != nil {
				return ids, fmt.Errorf("dislike %s: %w", id, err)
			}
		}
	}
	return ids, nil
}
