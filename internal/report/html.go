package report

import (
	"html/template"
	"io"

	"github.com/face2phrase/backend/internal/stores/session"
)

// RenderFeedbackHTML writes a browsable view of the feedback bundle
func RenderFeedbackHTML(w io.Writer, feedback *session.FeedbackBundle) error {
	return feedbackTemplate.Execute(w, feedback)
}

// RenderAnswersHTML writes a browsable view of the expected-answers guide
func RenderAnswersHTML(w io.Writer, key *session.AnswerKey) error {
	return answersTemplate.Execute(w, key)
}

var viewFuncs = template.FuncMap{
	"addOne": func(i int) int { return i + 1 },
}

var feedbackTemplate = template.Must(template.New("feedback").Funcs(viewFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Interview Feedback - {{.Candidate.Name}}</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; max-width: 860px; margin: 2rem auto; color: #222; }
h1 { color: #1a4b8c; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem 1.5rem; margin: 1rem 0; }
.question { font-weight: 600; margin-bottom: .5rem; }
table { border-collapse: collapse; margin: .75rem 0; }
th, td { border: 1px solid #ccc; padding: .3rem .8rem; text-align: left; }
th { background: #f0f0f0; }
.answer { background: #f8f8f8; padding: .6rem; border-radius: 4px; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Interview Feedback Report</h1>
<p><strong>{{.Candidate.Name}}</strong> ({{.Candidate.Email}}) &mdash; {{.Candidate.Position}}, {{.Candidate.Experience}}</p>

{{range $i, $qf := .QuestionFeedbacks}}
<div class="card">
<div class="question">Q{{addOne $i}}. {{$qf.Question}}</div>
<div class="answer">{{$qf.UserAnswer}}</div>
<table>
<tr><th>Relevance</th><th>Clarity</th><th>Depth</th><th>Confidence</th><th>Overall</th></tr>
<tr><td>{{$qf.Ratings.Relevance}}/10</td><td>{{$qf.Ratings.Clarity}}/10</td><td>{{$qf.Ratings.Depth}}/10</td><td>{{$qf.Ratings.Confidence}}/10</td><td>{{$qf.Ratings.Overall}}/10</td></tr>
</table>
<p>{{$qf.Feedback}}</p>
</div>
{{end}}

<h2>Overall Summary</h2>
<p>{{.OverallSummary}}</p>

<h2>Recommendations</h2>
<ol>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}</ol>
</body>
</html>`))

var answersTemplate = template.Must(template.New("answers").Funcs(viewFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Expected Answers - {{.Candidate.Name}}</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; max-width: 860px; margin: 2rem auto; color: #222; }
h1 { color: #1a6b4b; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem 1.5rem; margin: 1rem 0; }
.question { font-weight: 600; margin-bottom: .5rem; }
.ideal { background: #f4faf6; padding: .6rem; border-radius: 4px; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Expected Answers Guide</h1>
<p><strong>{{.Candidate.Name}}</strong> &mdash; {{.Candidate.Position}}</p>

{{range $i, $ea := .ExpectedAnswers}}
<div class="card">
<div class="question">Q{{addOne $i}}. {{$ea.Question}}</div>
<div class="ideal">{{$ea.ExpectedAnswer}}</div>
{{if $ea.KeyPoints}}
<h4>Key points</h4>
<ul>
{{range $ea.KeyPoints}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
</div>
{{end}}
</body>
</html>`))
